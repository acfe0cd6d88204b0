package probe

import (
	"fmt"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// LoginItemBridge abstracts the System Events scripting interface used to
// enumerate and mutate login items. Tests substitute a fake; the real
// implementation shells out to osascript.
type LoginItemBridge interface {
	// List returns the current login items. Names and paths come from
	// two parallel queries; when the path list is shorter, trailing
	// items carry an empty path.
	List() ([]types.LoginItem, error)

	// Remove deletes the login item with the given name.
	Remove(name string) error

	// Add registers a new login item for the given path.
	Add(path string) error
}

// OsascriptBridge drives System Events through osascript.
type OsascriptBridge struct {
	Runner Runner
}

func (b *OsascriptBridge) List() ([]types.LoginItem, error) {
	nameOut, _, err := b.Runner.Run("osascript", "-e",
		`tell application "System Events" to get the name of every login item`)
	if err != nil {
		return nil, err
	}
	pathOut, _, err := b.Runner.Run("osascript", "-e",
		`tell application "System Events" to get the path of every login item`)
	if err != nil {
		return nil, err
	}

	names := splitAppleScriptList(nameOut)
	paths := splitAppleScriptList(pathOut)

	items := make([]types.LoginItem, 0, len(names))
	for i, name := range names {
		item := types.LoginItem{Name: name, Kind: types.LoginItemScript}
		if i < len(paths) {
			item.Path = paths[i]
			item.Kind = types.ClassifyLoginItemKind(paths[i])
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *OsascriptBridge) Remove(name string) error {
	script := fmt.Sprintf(`tell application "System Events" to delete login item %q`, name)
	_, stderr, err := b.Runner.Run("osascript", "-e", script)
	if err != nil {
		return err
	}
	if strings.Contains(stderr, "error") {
		return fmt.Errorf("System Events refused to delete %q: %s", name, strings.TrimSpace(stderr))
	}
	return nil
}

func (b *OsascriptBridge) Add(path string) error {
	script := fmt.Sprintf(
		`tell application "System Events" to make login item at end with properties {path:%q, hidden:false}`, path)
	_, stderr, err := b.Runner.Run("osascript", "-e", script)
	if err != nil {
		return err
	}
	if strings.Contains(stderr, "error") {
		return fmt.Errorf("System Events refused to add %q: %s", path, strings.TrimSpace(stderr))
	}
	return nil
}

// splitAppleScriptList parses osascript's comma-separated list output.
func splitAppleScriptList(out string) []string {
	var items []string
	for _, part := range strings.Split(strings.TrimSpace(out), ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func checkLoginItems(env *Env) types.Finding {
	items, err := env.Bridge.List()
	if err != nil {
		return types.ErrorFinding("Login Items", "Login Items", err)
	}
	f := types.Finding{
		Label:  "Login Items",
		Status: types.StatusOK,
		Info:   []string{"No login items found"},
		Tip:    "Tip: Only trusted apps/scripts should run at login. Remove any unknown login items from System Preferences > Users & Groups.",
	}
	if len(items) > 0 {
		f.Status = types.StatusAlert
		f.Info = nil
		for _, it := range items {
			f.Info = append(f.Info, it.Describe())
		}
		f.LoginItems = items
	}
	return f
}
