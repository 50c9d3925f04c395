package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/router"
)

// parseKDL builds a Config from .gamestringer.kdl content. Absent
// keys keep their defaults; unknown backend names are rejected so a
// typo cannot silently configure nothing.
func parseKDL(path, content string) (*Config, error) {
	cfg := defaultConfig()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, gserrors.NewConfigError("config", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "data":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Data.Dir = s
					}
				case "watch":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Data.Watch = b
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "min_similarity":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Search.MinSimilarity = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				}
			}
		case "backends":
			for _, bn := range n.Children {
				name := router.Backend(nodeName(bn))
				bc, ok := cfg.Backends.Backends[name]
				if !ok {
					return nil, gserrors.NewConfigError("backends", string(name),
						fmt.Errorf("unknown backend"))
				}
				for _, cn := range bn.Children {
					switch nodeName(cn) {
					case "enabled":
						if b, ok := firstBoolArg(cn); ok {
							bc.Enabled = b
						}
					case "api_key":
						if s, ok := firstStringArg(cn); ok {
							bc.APIKey = s
						}
					case "api_url":
						if s, ok := firstStringArg(cn); ok {
							bc.APIURL = s
						}
					case "rate_limit":
						if v, ok := firstIntArg(cn); ok {
							bc.RateLimitPerMinute = v
						}
					case "priority":
						if v, ok := firstIntArg(cn); ok {
							bc.Priority = v
						}
					case "cost_per_char":
						if v, ok := firstFloatArg(cn); ok {
							bc.CostPerChar = v
						}
					}
				}
				cfg.Backends.Backends[name] = bc
			}
		}
	}

	return cfg, nil
}

// Helpers leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
