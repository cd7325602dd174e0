package testsupport

import (
	"github.com/goliatone/go-tplconcept/pkg/render/template"
)

// Scenario pairs a context shape with the template that addresses it in each
// engine dialect and the literal output both must produce.
type Scenario struct {
	Name    string
	Pongo   string
	GoText  string
	Want    string
	Context func() *template.Context
}

// Scenarios returns the variable-resolution shapes every engine must render
// identically through Evaluate and Merge.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name:   "string variable",
			Pongo:  "Hello {{ user }}!",
			GoText: "Hello {{ .user }}!",
			Want:   "Hello John Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", "John Doe")
				return ctx
			},
		},
		{
			Name:   "special characters",
			Pongo:  "Hello {{ user }}!",
			GoText: "Hello {{ .user }}!",
			Want:   "Hello Papa O'Doe & Sons <Ltd>!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", "Papa O'Doe & Sons <Ltd>")
				return ctx
			},
		},
		{
			Name:   "string array",
			Pongo:  "Hello {{ user.0 }}!",
			GoText: "Hello {{ index .user 0 }}!",
			Want:   "Hello Baby Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", [1]string{"Baby Doe"})
				return ctx
			},
		},
		{
			Name:   "string list",
			Pongo:  "Hello {{ user.0 }}!",
			GoText: "Hello {{ index .user 0 }}!",
			Want:   "Hello Lady Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", []string{"Lady Doe"})
				return ctx
			},
		},
		{
			Name:   "string map",
			Pongo:  "Hello {{ user.name }}!",
			GoText: "Hello {{ .user.name }}!",
			Want:   "Hello Papa Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", map[string]string{"name": "Papa Doe"})
				return ctx
			},
		},
		{
			Name:   "object",
			Pongo:  "Hello {{ user.name }}!",
			GoText: "Hello {{ .user.name }}!",
			Want:   "Hello Jane Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", NewUser("Jane Doe"))
				return ctx
			},
		},
		{
			Name:   "object array",
			Pongo:  "Hello {{ user.0.name }}!",
			GoText: "Hello {{ (index .user 0).name }}!",
			Want:   "Hello Jane Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", [1]User{NewUser("Jane Doe")})
				return ctx
			},
		},
		{
			Name:   "object list",
			Pongo:  "Hello {{ user.0.name }}!",
			GoText: "Hello {{ (index .user 0).name }}!",
			Want:   "Hello Mama Bear!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("user", []User{NewUser("Mama Bear")})
				return ctx
			},
		},
		{
			Name:   "object map",
			Pongo:  "Hello {{ account.user.name }}!",
			GoText: "Hello {{ .account.user.name }}!",
			Want:   "Hello Papa Bear!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("account", map[string]User{"user": NewUser("Papa Bear")})
				return ctx
			},
		},
		{
			Name:   "inner object",
			Pongo:  "Hello {{ account.user.name }}!",
			GoText: "Hello {{ .account.user.name }}!",
			Want:   "Hello Jane Doe!",
			Context: func() *template.Context {
				ctx := template.NewContext()
				ctx.Put("account", NewAccount(NewUser("Jane Doe")))
				return ctx
			},
		},
		{
			Name:   "object property path",
			Pongo:  "Hello {{ account.user.name }}!",
			GoText: "Hello {{ .account.user.name }}!",
			Want:   "Hello Baby Bear!",
			Context: func() *template.Context {
				userContext := template.NewContext()
				userContext.Put("name", "Baby Bear")

				accountContext := template.NewContext()
				accountContext.Put("user", userContext)

				ctx := template.NewContext()
				ctx.Put("account", accountContext)
				return ctx
			},
		},
	}
}
