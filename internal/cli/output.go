// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwx.
//
// go-jwx is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-jwx/pkg/provider"
	"github.com/jeremyhahn/go-jwx/pkg/types"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// PrintToken prints a compact JWS or JWE
func (p *Printer) PrintToken(token string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"token": token,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, token)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintPayload prints a verified or decrypted payload
func (p *Printer) PrintPayload(payload []byte) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status":  "success",
			"payload": string(payload),
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, string(payload))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyInfo prints key material metadata, never private values
func (p *Printer) PrintKeyInfo(key *provider.KeyMaterial, path string) error {
	switch p.format {
	case OutputFormatJSON:
		info := map[string]any{
			"key_id":      key.KeyID,
			"kind":        key.Kind,
			"bits":        key.Bits,
			"backend":     key.Backend,
			"flags":       key.Flags.String(),
			"has_private": key.HasPrivateKey(),
		}
		if key.Curve != "" {
			info["curve"] = key.Curve
		}
		if path != "" {
			info["path"] = path
		}
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Key Information:")
		fmt.Fprintf(p.writer, "  Key ID:  %s\n", key.KeyID)
		fmt.Fprintf(p.writer, "  Kind:    %s\n", key.Kind)
		fmt.Fprintf(p.writer, "  Bits:    %d\n", key.Bits)
		if key.Curve != "" {
			fmt.Fprintf(p.writer, "  Curve:   %s\n", key.Curve)
		}
		fmt.Fprintf(p.writer, "  Backend: %s\n", key.Backend)
		fmt.Fprintf(p.writer, "  Flags:   %s\n", key.Flags)
		if path != "" {
			fmt.Fprintf(p.writer, "  Path:    %s\n", path)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintAlgorithms prints the supported algorithm taxonomy
func (p *Printer) PrintAlgorithms() error {
	sigs := types.SignatureAlgorithms()
	switch p.format {
	case OutputFormatJSON:
		list := make([]map[string]any, 0, len(sigs))
		for _, alg := range sigs {
			d, _ := alg.Describe()
			entry := map[string]any{
				"algorithm": alg,
				"jose":      d.JOSE,
				"kind":      d.Kind,
				"hash":      hashName(d),
			}
			if d.Curve != "" {
				entry["curve"] = d.Curve
			}
			list = append(list, entry)
		}
		return p.printJSON(map[string]any{
			"signature":          list,
			"key_management":     types.KeyWrapAlgorithms(),
			"content_encryption": types.ContentEncryptions(),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%-18s %-6s %-6s %-8s %s\n", "ALGORITHM", "JOSE", "KIND", "HASH", "CURVE")
		fmt.Fprintln(p.writer, strings.Repeat("-", 50))
		for _, alg := range sigs {
			d, _ := alg.Describe()
			jose := d.JOSE
			if jose == "" {
				jose = "-"
			}
			fmt.Fprintf(p.writer, "%-18s %-6s %-6s %-8s %s\n", alg, jose, d.Kind, hashName(d), d.Curve)
		}
		fmt.Fprintln(p.writer)
		fmt.Fprintln(p.writer, "Key management:")
		for _, kw := range types.KeyWrapAlgorithms() {
			fmt.Fprintf(p.writer, "  - %s\n", kw)
		}
		fmt.Fprintln(p.writer, "Content encryption:")
		for _, ce := range types.ContentEncryptions() {
			fmt.Fprintf(p.writer, "  - %s\n", ce)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func hashName(d types.SignatureDescriptor) string {
	if d.Hash == 0 {
		return "curve"
	}
	return d.Hash.String()
}

// PrintCapabilities prints the backend probe result
func (p *Printer) PrintCapabilities(caps *provider.Capabilities) error {
	kinds := []types.KeyKind{types.KeyKindRSA, types.KeyKindECDSA, types.KeyKindDSA}
	switch p.format {
	case OutputFormatJSON:
		selected := map[string]string{}
		for _, k := range kinds {
			selected[k.String()] = caps.Selected(k)
		}
		return p.printJSON(map[string]any{
			"backends": caps.Backends(),
			"selected": selected,
			"aes_ni":   caps.HasAESNI(),
			"arch":     caps.Arch(),
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Backends:")
		for _, b := range caps.Backends() {
			fmt.Fprintf(p.writer, "  - %-10s available=%t reentrant=%t\n", b.Name, b.Available, b.Reentrant)
		}
		fmt.Fprintln(p.writer, "Selected:")
		for _, k := range kinds {
			fmt.Fprintf(p.writer, "  %-6s %s\n", k, caps.Selected(k))
		}
		fmt.Fprintf(p.writer, "AES-NI: %t\n", caps.HasAESNI())
		fmt.Fprintf(p.writer, "Arch:   %s\n", caps.Arch())
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintJSONDocument prints an already marshalled JSON document, indented
// in both formats.
func (p *Printer) PrintJSONDocument(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return p.printJSON(v)
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
