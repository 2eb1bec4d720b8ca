package policy

import (
	"regexp"
)

// Signatures for operations that must not run unreviewed. These are matched
// against the literal command text before execution; the first matching rule
// id becomes the block reason.
var (
	systemCallRegex = regexp.MustCompile(`\b(system2?|shell|popen|fork|spawn|exec(\.Command)?|subprocess\.(run|call|Popen))\s*\(`)

	unlinkRegex = regexp.MustCompile(`\bunlink\s*\(`)

	fileRemoveRegex = regexp.MustCompile(`\b(file\.remove|os\.(remove|unlink|rmdir)|shutil\.rmtree|os\.RemoveAll)\s*\(`)

	shellRemoveRegex = regexp.MustCompile(`(?m)(^|[;&|]\s*)rm\s+(-[a-zA-Z]*\s+)*\S`)

	setenvRegex = regexp.MustCompile(`\b(Sys\.setenv|Sys\.unsetenv|setenv|putenv|os\.Setenv)\s*\(|\bos\.environ\s*\[`)

	setwdRegex = regexp.MustCompile(`(?m)\b(setwd|os\.chdir|chdir|os\.Chdir)\s*\(|(^|[;&|]\s*)cd\s+\S`)

	sourceRegex = regexp.MustCompile(`\b(source|sys\.source)\s*\(`)

	dynamicLoadRegex = regexp.MustCompile(`\b(dyn\.load|library\.dynam|importlib\.import_module|__import__|eval\s*\(\s*parse)\s*\(`)

	quitRegex = regexp.MustCompile(`\b(quit|q)\s*\(\s*\)`)
)

// DangerousRules returns the built-in dangerous-operation signatures in
// evaluation order. All block (no replacement).
func DangerousRules() []Rule {
	return []Rule{
		{ID: "system-call", Regex: systemCallRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "unlink", Regex: unlinkRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "file-remove", Regex: fileRemoveRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "shell-remove", Regex: shellRemoveRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "setenv", Regex: setenvRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "setwd", Regex: setwdRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "source", Regex: sourceRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "dynamic-load", Regex: dynamicLoadRegex, Category: CategoryDangerous, Builtin: true},
		{ID: "quit", Regex: quitRegex, Category: CategoryDangerous, Builtin: true},
	}
}
