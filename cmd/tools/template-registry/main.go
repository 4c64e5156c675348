// cmd/tools/template-registry/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"availability-notifier/pkg/registry"
)

func main() {
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)
	setPath := setCmd.String("path", "configs/templates.json", "Path to registry file")
	lang := setCmd.String("lang", "", "Two letter language code (e.g., fr)")
	subject := setCmd.String("subject", "", "Email subject line")
	header := setCmd.String("header", "", `Text before the location list (use \n for newlines)`)
	footer := setCmd.String("footer", "", `Text after the location list (use \n for newlines)`)

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/templates.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "set":
		_ = setCmd.Parse(os.Args[2:])
		if *lang == "" || *header == "" {
			fmt.Println("Error: lang and header are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		t := registry.MessageTemplate{
			Language: *lang,
			Subject:  *subject,
			Header:   unescape(*header),
			Footer:   unescape(*footer),
		}
		if err := setTemplate(*setPath, t); err != nil {
			fmt.Printf("Error saving template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved template: %s\n", strings.ToLower(*lang))

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		langs := make([]string, 0, len(reg.Templates))
		for _, t := range reg.Templates {
			langs = append(langs, t.Language)
		}
		sort.Strings(langs)
		fmt.Printf("Registry validation passed. Languages: %s\n", strings.Join(langs, ", "))

	default:
		help()
	}
}

func setTemplate(path string, t registry.MessageTemplate) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.TemplateRegistry{Version: "1.0.0"}
	}
	reg.Upsert(t)
	return reg.Save(path)
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func help() {
	fmt.Println(`
Usage: template-registry <command> [flags]

Commands:
  set       Add or replace the message template for a language
  validate  Validate the registry file
  help      Show this help message

Examples:
  template-registry set -lang fr -subject "Créneaux disponibles" -header "Créneaux disponibles :\n\n" -footer "\n\nNous arrêtons les notifications pour ces lieux."
  template-registry validate -path configs/templates.json`)
}
