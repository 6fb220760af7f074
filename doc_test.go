package autodeck

import (
	"go/ast"
	"go/parser"
	gotoken "go/token"
	"io/fs"
	"strings"
	"testing"
)

// interfaceMethods satisfy well-known interfaces and need no doc of their own.
var interfaceMethods = map[string]bool{
	"Error":          true,
	"Unwrap":         true,
	"HTTPStatusCode": true,
	"UnmarshalJSON":  true,
	"UnmarshalYAML":  true,
	"MarshalYAML":    true,
}

func TestExportedDeclarationsDocumented(t *testing.T) {
	for _, dir := range []string{".", "internal/logger", "internal/httpx"} {
		fset := gotoken.NewFileSet()
		pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
			return !strings.HasSuffix(fi.Name(), "_test.go")
		}, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", dir, err)
		}
		for _, pkg := range pkgs {
			for _, f := range pkg.Files {
				for _, decl := range f.Decls {
					checkDeclDoc(t, fset, decl)
				}
			}
		}
	}
}

func checkDeclDoc(t *testing.T, fset *gotoken.FileSet, decl ast.Decl) {
	t.Helper()
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if !d.Name.IsExported() || d.Doc != nil {
			return
		}
		if d.Recv != nil && (interfaceMethods[d.Name.Name] || receiverName(d) == "FuncGenerator") {
			return
		}
		t.Errorf("%s: %s has no doc comment", fset.Position(d.Pos()), d.Name.Name)
	case *ast.GenDecl:
		if d.Tok != gotoken.TYPE {
			return
		}
		for _, spec := range d.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.Name.IsExported() && ts.Doc == nil && (d.Lparen.IsValid() || d.Doc == nil) {
				t.Errorf("%s: type %s has no doc comment", fset.Position(ts.Pos()), ts.Name.Name)
			}
		}
	}
}

func receiverName(d *ast.FuncDecl) string {
	typ := d.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	if id, ok := typ.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}
