package lapd

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed msi_aliases.yaml
var msiAliasYAML []byte

type msiAlias struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

var msiAliases = loadMSIAliases()

func loadMSIAliases() []msiAlias {
	var table []msiAlias
	if err := yaml.Unmarshal(msiAliasYAML, &table); err != nil {
		panic(fmt.Sprintf("lapd: bad embedded MSI alias table: %v", err))
	}
	return table
}

// resolveMSIName maps a user-supplied diagnostic name or alias to the
// canonical group name. Exact group names pass through; otherwise the alias
// table is searched in order and the first match wins.
func resolveMSIName(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range msiAliases {
		if lower == strings.ToLower(entry.Name) {
			return entry.Name, true
		}
		for _, alias := range entry.Aliases {
			if lower == alias {
				return entry.Name, true
			}
		}
	}
	return "", false
}
