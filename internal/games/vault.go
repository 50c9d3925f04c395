package games

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// Store identifies a game store launcher.
type Store string

const (
	StoreSteam     Store = "steam"
	StoreEpic      Store = "epic"
	StoreUbisoft   Store = "ubisoft"
	StoreOrigin    Store = "origin"
	StoreGog       Store = "gog"
	StoreBattlenet Store = "battlenet"
	StoreRockstar  Store = "rockstar"
	StoreItchio    Store = "itchio"
)

var knownStores = map[Store]bool{
	StoreSteam:     true,
	StoreEpic:      true,
	StoreUbisoft:   true,
	StoreOrigin:    true,
	StoreGog:       true,
	StoreBattlenet: true,
	StoreRockstar:  true,
	StoreItchio:    true,
}

// ParseStore normalizes a store name and rejects unknown ones.
func ParseStore(s string) (Store, error) {
	store := Store(strings.ToLower(s))
	if !knownStores[store] {
		return "", gserrors.NewValidationError("store", fmt.Sprintf("%q is not a known store", s))
	}
	return store, nil
}

// Credential holds a store login in the clear. It only ever lives in
// memory; the vault keeps the sealed form.
type Credential struct {
	Store          Store             `json:"store"`
	Username       string            `json:"username"`
	Password       string            `json:"password"`
	AdditionalData map[string]string `json:"additional_data"`
	CreatedAt      time.Time         `json:"created_at"`
	LastUsed       time.Time         `json:"last_used"`
}

// NewCredential returns a credential stamped with the current time.
func NewCredential(store Store, username, password string) Credential {
	now := time.Now().UTC()
	return Credential{
		Store:          store,
		Username:       username,
		Password:       password,
		AdditionalData: make(map[string]string),
		CreatedAt:      now,
		LastUsed:       now,
	}
}

// Envelope is a sealed payload with the nonce it was sealed under.
type Envelope struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Cipher seals credential bytes at rest. The vault never inspects an
// envelope; the host supplies the scheme and holds the key.
type Cipher interface {
	Seal(plaintext []byte) (Envelope, error)
	Open(env Envelope) ([]byte, error)
}

// SealedCredential is a credential at rest. Only metadata stays readable.
type SealedCredential struct {
	Store     Store     `json:"store"`
	Envelope  Envelope  `json:"envelope"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"encryption_version"`
}

// CredentialInfo describes a stored credential without opening it.
type CredentialInfo struct {
	Store     Store     `json:"store"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	HasData   bool      `json:"has_data"`
}

// Vault keeps sealed credentials keyed by store. Plaintext passes
// through on save and load but never rests here.
type Vault struct {
	mu     sync.RWMutex
	cipher Cipher
	sealed map[Store]SealedCredential
}

// NewVault returns a vault sealing through the given cipher.
func NewVault(cipher Cipher) *Vault {
	return &Vault{
		cipher: cipher,
		sealed: make(map[Store]SealedCredential),
	}
}

// Save seals the credential and stores it, replacing any previous
// credential for the same store.
func (v *Vault) Save(cred Credential) error {
	store, err := ParseStore(string(cred.Store))
	if err != nil {
		return err
	}
	cred.Store = store

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return gserrors.NewStorageIO("save_credential", string(store), err)
	}
	env, err := v.cipher.Seal(plaintext)
	if err != nil {
		return gserrors.NewStorageIO("save_credential", string(store), err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.sealed[store] = SealedCredential{
		Store:     store,
		Envelope:  env,
		CreatedAt: cred.CreatedAt,
		UpdatedAt: cred.LastUsed,
		Version:   1,
	}
	debug.LogGames("credential saved for %s\n", store)
	return nil
}

// Load opens the credential for a store. The returned copy has its
// last-used time advanced; the sealed record is left untouched.
func (v *Vault) Load(store Store) (Credential, error) {
	v.mu.RLock()
	rec, ok := v.sealed[store]
	v.mu.RUnlock()
	if !ok {
		return Credential{}, gserrors.NewResourceNotFound("load_credential", "credential", string(store))
	}

	plaintext, err := v.cipher.Open(rec.Envelope)
	if err != nil {
		return Credential{}, gserrors.NewDeserialization("load_credential", string(store), err)
	}
	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return Credential{}, gserrors.NewDeserialization("load_credential", string(store), err)
	}
	cred.LastUsed = time.Now().UTC()
	return cred, nil
}

// Remove deletes the sealed credential for a store.
func (v *Vault) Remove(store Store) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.sealed[store]; !ok {
		return gserrors.NewResourceNotFound("remove_credential", "credential", string(store))
	}
	delete(v.sealed, store)
	debug.LogGames("credential removed for %s\n", store)
	return nil
}

// List returns the stores holding a sealed credential, sorted by name.
func (v *Vault) List() []Store {
	v.mu.RLock()
	defer v.mu.RUnlock()
	stores := make([]Store, 0, len(v.sealed))
	for store := range v.sealed {
		stores = append(stores, store)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i] < stores[j] })
	return stores
}

// Has reports whether a sealed credential exists for the store.
func (v *Vault) Has(store Store) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.sealed[store]
	return ok
}

// Info describes the credential for a store without opening it.
func (v *Vault) Info(store Store) (CredentialInfo, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	rec, ok := v.sealed[store]
	if !ok {
		return CredentialInfo{}, false
	}
	return CredentialInfo{
		Store:     rec.Store,
		CreatedAt: rec.CreatedAt,
		LastUsed:  rec.UpdatedAt,
		HasData:   len(rec.Envelope.Ciphertext) > 0,
	}, true
}
