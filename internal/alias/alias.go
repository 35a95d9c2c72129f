package alias

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pymanager/pymanager/internal/installmeta"
)

// Info is an alias derived at reconcile time from one Install, either an
// explicit declaration, a synthesized default-install entry, or an
// entry-point scan result.
type Info struct {
	InstallID string
	Name      string
	Windowed  bool
	Target    string // relative to the owning install's prefix
	Mod       string
	Func      string
	// ScriptCode is non-empty iff Mod/Func are set; it is the generated
	// sys.argv[0]-adjusting stub written to <name>.exe.__script__.py.
	ScriptCode string
}

// Key returns the case-folded alias name used to diff the desired set
// against the observed launcher directory; alias names are
// case-insensitive unique across it.
func (i Info) Key() string { return strings.ToLower(i.Name) }

var entryPointLine = regexp.MustCompile(`^([A-Za-z_][\w.\-]*)\s*=\s*([\w.]+)\s*:\s*([\w.]+)\s*$`)

// entrySection identifies which entry_points.txt section, if any, a line
// beginning with "[" starts.
func entrySection(line string) (kind string, ok bool) {
	line = strings.TrimSpace(line)
	switch line {
	case "[console_scripts]":
		return "console", true
	case "[gui_scripts]":
		return "gui", true
	}
	if strings.HasPrefix(line, "[") {
		return "", false
	}
	return "", false
}

// DesiredSet computes the full alias set for one install: explicit alias
// entries, default-install python/pythonw synthesis, and (if entrypoints is
// true) entry_points.txt scanning across its site directories.
func DesiredSet(inst *installmeta.Install, siteDirs []string, entrypoints bool) ([]Info, []string) {
	var infos []Info
	var warnings []string

	for _, a := range inst.Alias {
		target := filepath.Join(inst.Prefix, a.Target)
		if _, err := os.Stat(target); err != nil {
			warnings = append(warnings, fmt.Sprintf("alias %q: target %q does not exist in prefix", a.Name, a.Target))
			continue
		}
		infos = append(infos, Info{InstallID: inst.ID, Name: a.Name, Windowed: a.Windowed, Target: a.Target})
	}

	if inst.Default {
		nonWindowed, windowed := defaultTargets(inst)
		if nonWindowed != "" {
			infos = append(infos, Info{InstallID: inst.ID, Name: "python.exe", Windowed: false, Target: nonWindowed})
		}
		winTarget := windowed
		if winTarget == "" {
			winTarget = nonWindowed
		}
		if winTarget != "" {
			infos = append(infos, Info{InstallID: inst.ID, Name: "pythonw.exe", Windowed: true, Target: winTarget})
		}
	}

	if entrypoints {
		nonWindowed, windowed := defaultTargets(inst)
		for _, dir := range siteDirs {
			found, w := scanEntryPoints(filepath.Join(inst.Prefix, dir))
			warnings = append(warnings, w...)
			for _, e := range found {
				target := nonWindowed
				if e.windowed {
					target = windowed
					if target == "" {
						target = nonWindowed
					}
				}
				if target == "" {
					continue
				}
				infos = append(infos, Info{
					InstallID: inst.ID, Name: e.name, Windowed: e.windowed, Target: target,
					Mod: e.mod, Func: e.fn, ScriptCode: entryPointScript(e.mod, e.fn),
				})
			}
		}
	}

	return infos, warnings
}

// defaultTargets returns the first non-windowed and first windowed run-for
// targets for an install, used both for default-install synthesis and as
// the dispatch target for entry-point aliases.
func defaultTargets(inst *installmeta.Install) (nonWindowed, windowed string) {
	for _, rf := range inst.RunFor {
		if rf.Windowed && windowed == "" {
			windowed = rf.Target
		}
		if !rf.Windowed && nonWindowed == "" {
			nonWindowed = rf.Target
		}
	}
	if nonWindowed == "" {
		nonWindowed = inst.Executable
	}
	if windowed == "" {
		windowed = inst.ExecutableW
	}
	return nonWindowed, windowed
}

type entryPoint struct {
	name     string
	mod, fn  string
	windowed bool
}

// scanEntryPoints parses every dist-info/entry_points.txt beneath root for
// console_scripts/gui_scripts sections.
func scanEntryPoints(root string) ([]entryPoint, []string) {
	var found []entryPoint
	var warnings []string

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".dist-info") {
			continue
		}
		path := filepath.Join(root, e.Name(), "entry_points.txt")
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		found = append(found, parseEntryPointsFile(f, &warnings)...)
		f.Close()
	}
	sort.Slice(found, func(i, j int) bool { return found[i].name < found[j].name })
	return found, warnings
}

func parseEntryPointsFile(f *os.File, warnings *[]string) []entryPoint {
	var out []entryPoint
	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			kind, ok := entrySection(line)
			if ok {
				section = kind
			} else {
				section = ""
			}
			continue
		}
		if section == "" {
			continue
		}
		m := entryPointLine.FindStringSubmatch(line)
		if m == nil {
			*warnings = append(*warnings, fmt.Sprintf("entry_points.txt: unparseable line %q", line))
			continue
		}
		name, mod, fn := m[1], m[2], m[3]
		if !isIdentifierPath(mod) || !isIdentifierPath(fn) {
			*warnings = append(*warnings, fmt.Sprintf("entry_points.txt: %q has non-identifier mod/func, skipped", name))
			continue
		}
		out = append(out, entryPoint{name: name + ".exe", mod: mod, fn: fn, windowed: section == "gui"})
	}
	return out
}

func isIdentifierPath(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				continue
			}
			if i > 0 && r >= '0' && r <= '9' {
				continue
			}
			return false
		}
	}
	return true
}

// entryPointScript generates the fixed stub that strips a trailing
// "-script.py"/"-script.pyw"/".exe" from sys.argv[0] and dispatches into
// mod.func. sys.path[0] is left unchanged.
func entryPointScript(mod, fn string) string {
	return fmt.Sprintf(`import re
import sys

sys.argv[0] = re.sub(r"(-script\.pyw?|\.exe)?$", "", sys.argv[0])
if __name__ == "__main__":
    from %s import %s
    sys.exit(%s())
`, mod, fn, fn)
}
