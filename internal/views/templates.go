package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded page and fragment templates.
func Templates() *template.Template {
	return template.Must(template.New("views").ParseFS(templateFS, "templates/*.tmpl"))
}

// NavItem is one link of the top bar.
type NavItem struct {
	Name  string
	Title string
	Path  string
}

// Navigation returns the top bar links in display order.
func Navigation() []NavItem {
	nav := []NavItem{{Name: "dashboard", Title: "Dashboard", Path: "/"}}
	for _, v := range registry {
		nav = append(nav, NavItem{Name: v.Name, Title: v.Title, Path: v.Path})
	}
	return nav
}

// Page is the data of the shared layout.
type Page struct {
	Title         string
	Active        string
	Nav           []NavItem
	Fragment      string
	FailureBanner string
	Search        string
	FullChat      bool
}
