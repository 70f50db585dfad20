package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zmcp/odata-vdm/internal/wire"
)

// writeOutput prints a wire tree as indented JSON or as YAML
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(v)); err != nil {
			return fmt.Errorf("failed to render yaml: %w", err)
		}
		return enc.Close()
	default:
		data, err := wire.MarshalIndent(v)
		if err != nil {
			return fmt.Errorf("failed to render json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
}

// yamlNode builds the document by hand so that numbers keep their exact
// wire text and object keys come out sorted.
func yamlNode(v any) *yaml.Node {
	switch n := v.(type) {
	case nil:
		return scalar("!!null", "null")
	case string:
		return scalar("!!str", n)
	case bool:
		return scalar("!!bool", strconv.FormatBool(n))
	case json.Number:
		if strings.ContainsAny(n.String(), ".eE") {
			return scalar("!!float", n.String())
		}
		return scalar("!!int", n.String())
	case float64:
		return scalar("!!float", strconv.FormatFloat(n, 'f', -1, 64))
	case int64:
		return scalar("!!int", strconv.FormatInt(n, 10))
	case int:
		return scalar("!!int", strconv.Itoa(n))
	case wire.Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range slices.Sorted(maps.Keys(n)) {
			node.Content = append(node.Content, scalar("!!str", key), yamlNode(n[key]))
		}
		return node
	case wire.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	}
	return scalar("!!str", fmt.Sprint(v))
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
