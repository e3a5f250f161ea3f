package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		host  string
		valid bool
	}{
		{"myapp.lndo.site", true},
		{"sub.myapp.lndo.site", true},
		{"my-app.lndo.site", true},
		{"localhost", true},
		{"myapp", true},
		{"app123.test", true},

		{"", false},
		{"-myapp.lndo.site", false},
		{"myapp-.lndo.site", false},
		{".myapp.lndo.site", false},
		{"myapp..site", false},
		{"my_app.site", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateHostname(tt.host), "host: %s", tt.host)
		})
	}
}

func TestValidateIP(t *testing.T) {
	tests := []struct {
		ip    string
		valid bool
	}{
		{"127.0.0.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fe80::1", true},

		{"", false},
		{"256.0.0.1", false},
		{"not-an-ip", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateIP(tt.ip), "ip: %s", tt.ip)
		})
	}
}

func TestValidateAppName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"myapp", true},
		{"my-app_2", true},
		{"my.app", true},
		{"(weird)+name", true},

		{"", false},
		{"my app", false},
		{"myapp\n", false},
		{"my\tapp", false},
		{"app\x00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateAppName(tt.name), "name: %q", tt.name)
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr string
	}{
		{"https://myapp.lndo.site", ""},
		{"http://myapp.lndo.site:8080/path", ""},
		{"http://localhost:32768", ""},
		{"http://127.0.0.1", ""},
		{"http://[::1]:8080", ""},

		{"myapp.lndo.site", "has no host"},
		{"", "has no host"},
		{"https://*.myapp.lndo.site", "wildcard"},
		{"https://bad_host.site", "invalid host"},
		{"http://[::1", "invalid url"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := Example("myapp")
		cfg.App.Services = append(cfg.App.Services, Service{
			Name: "database",
			URLs: []string{"tcp://localhost:3306"},
		})
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		err := ValidateConfig(nil)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "config", vErr.Field)
	})

	t.Run("empty name accepted", func(t *testing.T) {
		cfg := valid()
		cfg.App.Name = ""
		assert.NoError(t, ValidateConfig(cfg))
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "name with whitespace",
			mutate: func(c *Config) { c.App.Name = "my app" },
			field:  "app.name",
		},
		{
			name:   "service without name",
			mutate: func(c *Config) { c.App.Services[1].Name = " " },
			field:  "app.services[1].name",
		},
		{
			name:   "bad url",
			mutate: func(c *Config) { c.App.Services[0].URLs = append(c.App.Services[0].URLs, "nohost") },
			field:  "app.services[0].urls[1]",
		},
		{
			name:   "bad flush method",
			mutate: func(c *Config) { c.Settings.FlushMethod = "magic" },
			field:  "settings.flushMethod",
		},
		{
			name:   "bad elevation mode",
			mutate: func(c *Config) { c.Settings.WindowsElevation = "runas" },
			field:  "settings.windowsElevation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Contains(t, vErr.Error(), tt.field+": ")
		})
	}
}

func TestRequireApp(t *testing.T) {
	assert.NoError(t, RequireApp(Example("myapp")))

	var vErr *ValidationError
	require.ErrorAs(t, RequireApp(Default()), &vErr)
	assert.Equal(t, "app.name", vErr.Field)
	assert.Contains(t, vErr.Message, "required")

	cfg := Default()
	cfg.App.Name = "two words"
	require.ErrorAs(t, RequireApp(cfg), &vErr)
	assert.Contains(t, vErr.Message, "invalid app name")

	assert.Error(t, RequireApp(nil))
}
