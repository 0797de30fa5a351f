package lang

// Talon is the language of command scripts. It has no tree-sitter grammar;
// internal/talonscript parses it.
const Talon = "talon"

func init() {
	Languages[Talon] = &Language{
		Name:       Talon,
		Extensions: []string{".talon"},
	}
}
