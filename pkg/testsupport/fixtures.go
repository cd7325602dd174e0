package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// User is a test double exposing a single name property.
type User struct {
	Name string `json:"name"`
}

// NewUser returns a User named name.
func NewUser(name string) User {
	return User{Name: name}
}

// Account is a test double that nests a User.
type Account struct {
	User User `json:"user"`
}

// NewAccount returns an Account holding user.
func NewAccount(user User) Account {
	return Account{User: user}
}

// WriteTemplateFixture writes content to dir/name and removes the file when
// the test finishes. It returns the full path.
func WriteTemplateFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Remove(path)
	})
	return path
}
