package buildinfo

import (
	"runtime/debug"
	"testing"
)

func settings(kv ...string) []debug.BuildSetting {
	var out []debug.BuildSetting
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, debug.BuildSetting{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		bi   *debug.BuildInfo
		want string
	}{
		{"no vcs info", &debug.BuildInfo{}, "dev"},
		{"devel main version", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "dev"},
		{"tagged install", &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}}, "v0.3.1"},
		{
			"long revision truncated",
			&debug.BuildInfo{Settings: settings("vcs.revision", "abc123def456789")},
			"dev-abc123def456",
		},
		{
			"short revision kept",
			&debug.BuildInfo{Settings: settings("vcs.revision", "abc123")},
			"dev-abc123",
		},
		{
			"dirty tree",
			&debug.BuildInfo{Settings: settings("vcs.revision", "abc123def456789", "vcs.modified", "true")},
			"dev-abc123def456-dirty",
		},
		{
			"clean tree",
			&debug.BuildInfo{Settings: settings("vcs.revision", "abc123def456789", "vcs.modified", "false")},
			"dev-abc123def456",
		},
		{
			"tag wins over revision",
			&debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}, Settings: settings("vcs.revision", "abc123", "vcs.modified", "true")},
			"v1.0.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.bi).Version; got != tt.want {
				t.Errorf("Version = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromBuildInfoFields(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.25.8",
		Settings:  settings("vcs.revision", "0123456789abcdef", "vcs.modified", "true"),
	})
	if info.GoVersion != "go1.25.8" || info.Revision != "0123456789abcdef" || !info.Modified {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestVersionNotEmpty(t *testing.T) {
	if Version() == "" {
		t.Error("Version() returned empty string")
	}
}
