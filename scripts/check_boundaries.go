package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Usage: go run ./scripts/check_boundaries.go
// Walks contexts/ and internal/ and fails when a file imports across a
// layer or module boundary. Test files are not checked.

const modulePath = "stackit"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

type importRef struct {
	Path string
	Line int
}

func main() {
	var violations []violation
	for _, root := range []string{"contexts", "internal"} {
		violations = append(violations, walk(root)...)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func walk(root string) []violation {
	var out []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		imports, err := parseImports(path)
		if err != nil {
			out = append(out, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return nil
		}
		out = append(out, checkFile(normalized, imports)...)
		return nil
	})
	return out
}

func parseImports(path string) ([]importRef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	refs := make([]importRef, 0, len(file.Imports))
	for _, imp := range file.Imports {
		refs = append(refs, importRef{
			Path: strings.Trim(imp.Path.Value, `"`),
			Line: fset.Position(imp.Pos()).Line,
		})
	}
	return refs, nil
}

// checkFile applies the rules for the file's location. Paths are slash
// separated and relative to the repository root.
func checkFile(path string, imports []importRef) []violation {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) >= 4 && parts[0] == "contexts":
		return checkContextFile(path, parts[1], parts[2], parts[3], imports)
	case len(parts) >= 3 && parts[0] == "internal":
		return checkInternalFile(path, parts[1], parts[2], imports)
	}
	return nil
}

func checkContextFile(path string, contextName string, serviceName string, layer string, imports []importRef) []violation {
	self := fmt.Sprintf("%s/contexts/%s/%s", modulePath, contextName, serviceName)
	var out []violation
	add := func(ref importRef, rule string) {
		out = append(out, violation{File: path, Line: ref.Line, Import: ref.Path, Rule: rule})
	}

	for _, ref := range imports {
		if hasPrefix(ref.Path, modulePath+"/contexts") && !hasPrefix(ref.Path, self) {
			add(ref, "cross-module imports are forbidden; wire modules in internal/app")
		}
		if isStdlib(ref.Path) {
			continue
		}
		switch layer {
		case "domain":
			if !hasPrefix(ref.Path, self+"/domain") {
				add(ref, "domain may import only the standard library and its own domain")
			}
		case "application":
			if !anyPrefix(ref.Path, self+"/application", self+"/domain", self+"/ports", modulePath+"/internal/shared") {
				add(ref, "application may import only its own application, domain, ports and internal/shared")
			}
		case "ports":
			if !anyPrefix(ref.Path, self+"/domain", self+"/ports", modulePath+"/internal/shared") {
				add(ref, "ports may import only its own domain and internal/shared")
			}
		}
	}
	return out
}

func checkInternalFile(path string, area string, pkg string, imports []importRef) []violation {
	var out []violation
	for _, ref := range imports {
		switch {
		case area == "shared" && !isStdlib(ref.Path) && !hasPrefix(ref.Path, modulePath+"/internal/shared"):
			out = append(out, violation{File: path, Line: ref.Line, Import: ref.Path, Rule: "internal/shared must stay standard library only"})
		case area == "platform" && pkg != "httpserver" && hasPrefix(ref.Path, modulePath+"/contexts"):
			out = append(out, violation{File: path, Line: ref.Line, Import: ref.Path, Rule: "platform packages must not depend on contexts"})
		}
	}
	return out
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func anyPrefix(path string, prefixes ...string) bool {
	for _, p := range prefixes {
		if hasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
