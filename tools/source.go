package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// GoMethod is an API method found in a binding package.
type GoMethod struct {
	Name        string   // Method name, e.g. "List"
	Receiver    string   // Receiver type, e.g. "*CustomersService"
	Resource    string   // Receiver without the Service suffix; empty for Client
	Parameters  []string // Parameter names and types
	ReturnTypes []string // Return value types
	FileName    string   // Source file containing the method
	LineNumber  int      // Line number where the method is defined
	Comments    string   // Doc comment on a single line
}

// QualifiedName is the method as a caller writes it, e.g. "Customers().List".
func (m GoMethod) QualifiedName() string {
	if m.Resource == "" {
		return m.Name
	}
	return m.Resource + "()." + m.Name
}

// baseName drops the WithContext suffix of context-aware variants.
func (m GoMethod) baseName() string {
	return strings.TrimSuffix(m.Name, "WithContext")
}

// SourceAnalyzer finds the API methods of one package directory.
type SourceAnalyzer interface {
	Analyze(dir string) ([]GoMethod, error)
}

// PackageAnalyzer parses the non-test files of a package with go/ast.
type PackageAnalyzer struct {
	Logger hclog.Logger
}

// Analyze returns the API methods declared in dir, in file order.
func (a *PackageAnalyzer) Analyze(dir string) ([]GoMethod, error) {
	logger := a.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)

	var methods []GoMethod
	parsed := 0
	for _, path := range files {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		found, err := parseGoFile(path)
		if err != nil {
			logger.Warn("skipping unparsable file", "path", path, "error", err)
			continue
		}
		parsed++
		for _, m := range found {
			logger.Trace("found method", "file", m.FileName, "method", m.QualifiedName())
		}
		methods = append(methods, found...)
	}
	if parsed == 0 {
		return nil, fmt.Errorf("no Go source files in %s", dir)
	}

	logger.Debug("scanned package", "dir", dir, "methods", len(methods))
	return methods, nil
}

// parseGoFile extracts the API methods of a single file.
func parseGoFile(filename string) ([]GoMethod, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	var methods []GoMethod
	for _, decl := range node.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && isAPIMethod(fn) {
			methods = append(methods, extractMethodInfo(fset, filename, fn))
		}
	}
	return methods, nil
}

// isAPIMethod reports whether fn is an exported, context-taking method on
// the Client or one of its services.
func isAPIMethod(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) == 0 || !fn.Name.IsExported() {
		return false
	}
	recv := strings.TrimPrefix(receiverType(fn), "*")
	if recv != "Client" && !strings.HasSuffix(recv, "Service") {
		return false
	}

	params := fn.Type.Params.List
	if len(params) == 0 {
		return false
	}
	sel, ok := params[0].Type.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "context" && sel.Sel.Name == "Context"
}

func receiverType(fn *ast.FuncDecl) string {
	switch t := fn.Recv.List[0].Type.(type) {
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return "*" + ident.Name
		}
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// extractMethodInfo builds a GoMethod from its declaration.
func extractMethodInfo(fset *token.FileSet, filename string, fn *ast.FuncDecl) GoMethod {
	receiver := receiverType(fn)
	resource := strings.TrimSuffix(strings.TrimPrefix(receiver, "*"), "Service")
	if resource == "Client" {
		resource = ""
	}

	var parameters []string
	for _, param := range fn.Type.Params.List {
		paramType := typeToString(param.Type)
		if len(param.Names) == 0 {
			parameters = append(parameters, paramType)
			continue
		}
		for _, name := range param.Names {
			parameters = append(parameters, name.Name+" "+paramType)
		}
	}

	var returnTypes []string
	if fn.Type.Results != nil {
		for _, result := range fn.Type.Results.List {
			returnTypes = append(returnTypes, typeToString(result.Type))
		}
	}

	var comments string
	if fn.Doc != nil {
		comments = strings.Join(strings.Fields(fn.Doc.Text()), " ")
	}

	return GoMethod{
		Name:        fn.Name.Name,
		Receiver:    receiver,
		Resource:    resource,
		Parameters:  parameters,
		ReturnTypes: returnTypes,
		FileName:    filepath.Base(filename),
		LineNumber:  fset.Position(fn.Pos()).Line,
		Comments:    comments,
	}
}

// typeToString renders a type expression roughly as it appears in source.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeToString(t.Elt)
	case *ast.Ellipsis:
		return "..." + typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.IndexExpr:
		return typeToString(t.X) + "[" + typeToString(t.Index) + "]"
	case *ast.IndexListExpr:
		args := make([]string, len(t.Indices))
		for i, idx := range t.Indices {
			args[i] = typeToString(idx)
		}
		return typeToString(t.X) + "[" + strings.Join(args, ", ") + "]"
	case *ast.InterfaceType:
		if len(t.Methods.List) == 0 {
			return "any"
		}
		return "interface{...}"
	case *ast.ChanType:
		return "chan " + typeToString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	default:
		return "unknown"
	}
}
