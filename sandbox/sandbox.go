// Package sandbox assembles the virtual Vite project that the preview widget
// runs: the fixed scaffold, the themed index.html, the component under edit
// and its registry dependencies.
package sandbox

import (
	"bytes"
	"embed"
	"sort"
	"strings"
	"text/template"

	"tweakplay/catalog"
	"tweakplay/model"
)

// Paths of the scaffold files.
const (
	IndexHTMLPath  = "/index.html"
	MainPath       = "/src/main.tsx"
	AppPath        = "/src/App.tsx"
	IndexCSSPath   = "/src/index.css"
	ViteConfigPath = "/vite.config.ts"
	TSConfigPath   = "/tsconfig.json"
	UtilsPath      = "/src/lib/utils.ts"
	UseMobilePath  = "/src/hooks/use-mobile.ts"
)

const (
	styleOpen  = `<style type="text/tailwindcss">` + "\n"
	styleClose = "\n    </style>"
)

//go:embed scaffold
var scaffoldFS embed.FS

var indexTemplate = template.Must(template.New("index").Parse(mustRead("index.html.tmpl")))

var (
	mainCode       = mustRead("main.tsx")
	defaultAppCode = mustRead("App.tsx")
	indexCSSCode   = mustRead("index.css")
	viteConfigCode = mustRead("vite.config.ts")
	tsconfigCode   = mustRead("tsconfig.json")
	utilsCode      = mustRead("utils.ts") + "\n"
	useMobileCode  = mustRead("use-mobile.ts")
)

func mustRead(name string) string {
	data, err := scaffoldFS.ReadFile("scaffold/" + name)
	if err != nil {
		panic(err)
	}
	return strings.TrimSuffix(string(data), "\n")
}

// BaseDependencies are installed in every preview project.
var BaseDependencies = map[string]string{
	"react":                "^18.2.0",
	"react-dom":            "^18.2.0",
	"@types/react":         "^18.2.0",
	"@types/react-dom":     "^18.2.0",
	"@vitejs/plugin-react": "^4.2.0",
	"typescript":           "^5.6.3",
	"vite":                 "^5.0.0",
	"clsx":                 "^2.1.1",
	"lucide-react":         "latest",
}

// DefaultDependencies back the scaffold's utility files.
var DefaultDependencies = map[string]string{
	"tailwind-merge": "latest",
	"tw-animate-css": "^1.4.0",
}

// Input is everything a preview project is built from.
type Input struct {
	// Component is the id of the component under edit.
	Component     string
	ComponentCode string
	// PreviewCode is an App.tsx default-exporting the example.
	PreviewCode string
	Registry    map[string]catalog.RegistrySource
	// Dependencies are the component's own npm dependencies.
	Dependencies map[string]string
	ThemeCSS     string
	Dark         bool
	// Overrides holds cached edits. Only App.tsx, the component file and
	// registry files are taken from it.
	Overrides model.CachedFiles
}

// Project is the file map and options handed to the preview widget.
type Project struct {
	Files        model.CachedFiles `json:"files"`
	VisibleFiles []string          `json:"visibleFiles"`
	ActiveFile   string            `json:"activeFile"`
	Dependencies map[string]string `json:"dependencies"`
}

// Build assembles the full preview project.
func Build(in Input) Project {
	files := Editable(in)
	for path, file := range files {
		if o, ok := in.Overrides[path]; ok {
			file.Code = o.Code
			files[path] = file
		}
	}
	if files[AppPath].Code == "" {
		files[AppPath] = model.File{Code: defaultAppCode}
	}

	files[IndexHTMLPath] = model.File{Code: IndexHTML(in.ThemeCSS, in.Dark)}
	files[MainPath] = model.File{Code: mainCode}
	files[IndexCSSPath] = model.File{Code: indexCSSCode}
	files[ViteConfigPath] = model.File{Code: viteConfigCode, Hidden: true}
	files[TSConfigPath] = model.File{Code: tsconfigCode, Hidden: true}
	files[UtilsPath] = model.File{Code: utilsCode, Hidden: true}
	files[UseMobilePath] = model.File{Code: useMobileCode, Hidden: true}

	return Project{
		Files:        files,
		VisibleFiles: VisibleFiles(in.Component, in.Registry),
		ActiveFile:   AppPath,
		Dependencies: Dependencies(in.Dependencies, in.Registry),
	}
}

// Editable returns the user-editable files before any cached edits: the
// preview App, the component and its registry dependencies.
func Editable(in Input) model.CachedFiles {
	app := in.PreviewCode
	if app == "" {
		app = defaultAppCode
	}
	files := model.CachedFiles{
		AppPath: {Code: app},
	}
	if in.Component != "" {
		files[catalog.Path(in.Component)] = model.File{Code: in.ComponentCode}
	}
	for name, src := range in.Registry {
		files[catalog.Path(name)] = model.File{Code: src.Code}
	}
	return files
}

// VisibleFiles lists the editor tabs: App first, then the component, then
// registry files sorted by name.
func VisibleFiles(component string, registry map[string]catalog.RegistrySource) []string {
	out := []string{AppPath}
	if component != "" {
		out = append(out, catalog.Path(component))
	}
	for _, name := range sortedNames(registry) {
		out = append(out, catalog.Path(name))
	}
	return out
}

// Dependencies merges npm dependencies. Later layers win: base, defaults,
// registry components (by name), then the component's own.
func Dependencies(component map[string]string, registry map[string]catalog.RegistrySource) map[string]string {
	out := make(map[string]string, len(BaseDependencies)+len(DefaultDependencies)+len(component))
	for k, v := range BaseDependencies {
		out[k] = v
	}
	for k, v := range DefaultDependencies {
		out[k] = v
	}
	for _, name := range sortedNames(registry) {
		for k, v := range registry[name].Dependencies {
			out[k] = v
		}
	}
	for k, v := range component {
		out[k] = v
	}
	return out
}

// IndexHTML renders the entry page with css inlined for the Tailwind
// browser build.
func IndexHTML(css string, dark bool) string {
	var buf bytes.Buffer
	data := struct {
		Title string
		CSS   string
		Dark  bool
	}{"Component Preview", css, dark}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ExtractThemeCSS returns the CSS inlined by IndexHTML. It reports false
// when the page has no theme block.
func ExtractThemeCSS(indexHTML string) (string, bool) {
	start := strings.Index(indexHTML, styleOpen)
	if start < 0 {
		return "", false
	}
	rest := indexHTML[start+len(styleOpen):]
	end := strings.LastIndex(rest, styleClose)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func sortedNames(registry map[string]catalog.RegistrySource) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
