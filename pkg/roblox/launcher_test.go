package roblox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

func TestExtractPrivateServerCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty", input: "", want: ""},
		{name: "digits", input: "12345678901234567890123456789012", want: "12345678901234567890123456789012"},
		{name: "letters", input: "abc123", wantErr: true},
		{name: "url", input: "https://roblox.com/share?code=123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPrivateServerCode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPrivateServer) {
					t.Errorf("error = %v, want ErrInvalidPrivateServer", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildLaunchURLHome(t *testing.T) {
	url, err := BuildLaunchURL("TICKET", LaunchRequest{})
	if err != nil {
		t.Fatalf("BuildLaunchURL() error = %v", err)
	}

	if !strings.HasPrefix(url, "roblox-player:1+launchmode:play+gameinfo:TICKET") {
		t.Errorf("url = %q", url)
	}
	if strings.Contains(url, "placelauncherurl") {
		t.Error("home launch must not carry a place launcher URL")
	}
}

func TestBuildLaunchURLPlace(t *testing.T) {
	url, err := BuildLaunchURL("TICKET", LaunchRequest{PlaceID: 189707})
	if err != nil {
		t.Fatalf("BuildLaunchURL() error = %v", err)
	}

	if !strings.Contains(url, "placeId=189707") {
		t.Errorf("url missing place id: %q", url)
	}
	if strings.Contains(url, "linkCode") || strings.Contains(url, "gameId=") {
		t.Errorf("plain place launch must not target a server: %q", url)
	}
}

func TestBuildLaunchURLJobTargeting(t *testing.T) {
	url, err := BuildLaunchURL("TICKET", LaunchRequest{PlaceID: 189707, JobID: "job-abc"})
	if err != nil {
		t.Fatalf("BuildLaunchURL() error = %v", err)
	}
	if !strings.Contains(url, "gameId=job-abc") {
		t.Errorf("url missing job id: %q", url)
	}
}

func TestBuildLaunchURLPrivateServerWins(t *testing.T) {
	url, err := BuildLaunchURL("TICKET", LaunchRequest{
		PlaceID:       189707,
		PrivateServer: "1234",
		JobID:         "job-abc",
	})
	if err != nil {
		t.Fatalf("BuildLaunchURL() error = %v", err)
	}
	if !strings.Contains(url, "linkCode=1234") {
		t.Errorf("url missing link code: %q", url)
	}
	if strings.Contains(url, "gameId=") {
		t.Errorf("private server must take precedence over job id: %q", url)
	}
}

func TestBuildLaunchURLInvalidPrivateServer(t *testing.T) {
	_, err := BuildLaunchURL("TICKET", LaunchRequest{PlaceID: 1, PrivateServer: "not-digits"})
	if !errors.Is(err, ErrInvalidPrivateServer) {
		t.Errorf("error = %v, want ErrInvalidPrivateServer", err)
	}
}

// fakeAppData builds a LOCALAPPDATA tree with version folders.
func fakeAppData(t *testing.T, versions map[string][]string) string {
	t.Helper()

	root := t.TempDir()
	for version, files := range versions {
		dir := filepath.Join(root, "Roblox", "Versions", "version-"+version)
		if err := os.MkdirAll(dir, 0700); err != nil {
			t.Fatal(err)
		}
		for _, f := range files {
			if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0600); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

func newTestLauncher(pref, appData string) *Launcher {
	l := NewLauncher(pref, logger.Noop())
	l.localAppData = func() string { return appData }
	return l
}

func TestQuarantineAndRestoreInstallers(t *testing.T) {
	appData := fakeAppData(t, map[string][]string{
		"aaa": {"RobloxPlayerBeta.exe", "RobloxPlayerInstaller.exe"},
		"bbb": {"RobloxPlayerBeta.exe"},
	})
	l := newTestLauncher(LauncherClient, appData)

	l.QuarantineInstallers()

	installer := filepath.Join(appData, "Roblox", "Versions", "version-aaa", "RobloxPlayerInstaller.exe")
	if _, err := os.Stat(installer); !os.IsNotExist(err) {
		t.Error("installer still present after quarantine")
	}
	quarantined := filepath.Join(appData, "RobAccounts", "Quarantine", "aaa", "RobloxPlayerInstaller.exe")
	if _, err := os.Stat(quarantined); err != nil {
		t.Errorf("quarantined installer missing: %v", err)
	}

	l.RestoreInstallers()

	if _, err := os.Stat(installer); err != nil {
		t.Errorf("installer not restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(appData, "RobAccounts", "Quarantine")); !os.IsNotExist(err) {
		t.Error("quarantine folder not cleaned up")
	}
}

func TestOpenWithClientBinary(t *testing.T) {
	appData := fakeAppData(t, map[string][]string{
		"aaa": {"RobloxPlayerBeta.exe", "RobloxPlayerInstaller.exe"},
	})
	l := newTestLauncher(LauncherClient, appData)

	var gotName string
	var gotArgs []string
	l.startProc = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	if err := l.Open("roblox-player:1+test"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if filepath.Base(gotName) != "RobloxPlayerBeta.exe" {
		t.Errorf("started %q", gotName)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "roblox-player:1+test" {
		t.Errorf("args = %v", gotArgs)
	}

	// Quarantine happens before the raw client starts.
	installer := filepath.Join(appData, "Roblox", "Versions", "version-aaa", "RobloxPlayerInstaller.exe")
	if _, err := os.Stat(installer); !os.IsNotExist(err) {
		t.Error("installer not quarantined before client launch")
	}
}

func TestOpenMissingBootstrapper(t *testing.T) {
	l := newTestLauncher(LauncherBloxstrap, t.TempDir())

	if err := l.Open("roblox-player:1+test"); !errors.Is(err, ErrLauncherNotFound) {
		t.Errorf("Open() error = %v, want ErrLauncherNotFound", err)
	}
}

func TestDetectCustom(t *testing.T) {
	appData := t.TempDir()
	l := newTestLauncher(LauncherDefault, appData)

	if path, name := l.DetectCustom(); path != "" || name != "" {
		t.Errorf("DetectCustom() = %q, %q on empty tree", path, name)
	}

	binary := filepath.Join(appData, "Fishstrap", "Fishstrap.exe")
	if err := os.MkdirAll(filepath.Dir(binary), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binary, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	path, name := l.DetectCustom()
	if name != LauncherFishstrap || path != binary {
		t.Errorf("DetectCustom() = %q, %q", path, name)
	}
}
