package labels

import (
	"errors"
	"testing"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/logger"
)

func testLogger() logger.Logger {
	return logger.New("error", false)
}

func TestParseNoPublishKey(t *testing.T) {
	p := NewParser(testLogger())

	tests := []struct {
		name     string
		labelMap map[string]string
	}{
		{
			name:     "empty map",
			labelMap: map[string]string{},
		},
		{
			name:     "nil map",
			labelMap: nil,
		},
		{
			name: "unrelated labels only",
			labelMap: map[string]string{
				"com.docker.compose.project": "demo",
				"mdns.txt":                   "ignored=yes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := p.Parse(tt.labelMap)
			if err != nil {
				t.Fatalf("Parse() error = %v, want nil", err)
			}
			if intent != nil {
				t.Errorf("Parse() = %+v, want nil intent", intent)
			}
		})
	}
}

func TestParsePublish(t *testing.T) {
	p := NewParser(testLogger())

	tests := []struct {
		name     string
		labelMap map[string]string
		wantHost string
		wantPort int
		wantType string
		wantErr  bool
	}{
		{
			name:     "host only defaults to port 80",
			labelMap: map[string]string{KeyPublish: "web.local"},
			wantHost: "web.local",
			wantPort: 80,
			wantType: "_http._tcp",
		},
		{
			name:     "host with port",
			labelMap: map[string]string{KeyPublish: "test2.local:8080"},
			wantHost: "test2.local",
			wantPort: 8080,
			wantType: "_http._tcp",
		},
		{
			name:     "well-known port derives type",
			labelMap: map[string]string{KeyPublish: "printer.local:631"},
			wantHost: "printer.local",
			wantPort: 631,
			wantType: "_ipp._tcp",
		},
		{
			name:     "mqtt port derives type",
			labelMap: map[string]string{KeyPublish: "broker.local:1883"},
			wantHost: "broker.local",
			wantPort: 1883,
			wantType: "_mqtt._tcp",
		},
		{
			name:     "trailing dot tolerated",
			labelMap: map[string]string{KeyPublish: "web.local."},
			wantHost: "web.local",
			wantPort: 80,
			wantType: "_http._tcp",
		},
		{
			name:     "subdomain allowed",
			labelMap: map[string]string{KeyPublish: "foo.subdomain.local"},
			wantHost: "foo.subdomain.local",
			wantPort: 80,
			wantType: "_http._tcp",
		},
		{
			name:     "valid service type override",
			labelMap: map[string]string{KeyPublish: "scan.local", KeyServiceType: "_scanner._tcp"},
			wantHost: "scan.local",
			wantPort: 80,
			wantType: "_scanner._tcp",
		},
		{
			name:     "invalid override falls back to default",
			labelMap: map[string]string{KeyPublish: "web.local", KeyServiceType: "http"},
			wantHost: "web.local",
			wantPort: 80,
			wantType: "_http._tcp",
		},
		{
			name:     "invalid override falls back to port-derived type",
			labelMap: map[string]string{KeyPublish: "printer.local:631", KeyServiceType: "ipp._tcp"},
			wantHost: "printer.local",
			wantPort: 631,
			wantType: "_ipp._tcp",
		},
		{
			name:     "unparsable port",
			labelMap: map[string]string{KeyPublish: "web.local:abc"},
			wantErr:  true,
		},
		{
			name:     "port out of range",
			labelMap: map[string]string{KeyPublish: "web.local:70000"},
			wantErr:  true,
		},
		{
			name:     "non-local hostname",
			labelMap: map[string]string{KeyPublish: "web.example.com"},
			wantErr:  true,
		},
		{
			name:     "invalid hostname characters",
			labelMap: map[string]string{KeyPublish: "my host.local"},
			wantErr:  true,
		},
		{
			name:     "comma list rejected",
			labelMap: map[string]string{KeyPublish: "a.local,b.local"},
			wantErr:  true,
		},
		{
			name:     "empty value",
			labelMap: map[string]string{KeyPublish: ""},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := p.Parse(tt.labelMap)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse() = %+v, want error", intent)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("Parse() error type = %T, want *ParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if intent.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", intent.Host, tt.wantHost)
			}
			if intent.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", intent.Port, tt.wantPort)
			}
			if intent.ServiceType != tt.wantType {
				t.Errorf("ServiceType = %q, want %q", intent.ServiceType, tt.wantType)
			}
		})
	}
}

func TestParseTxt(t *testing.T) {
	p := NewParser(testLogger())

	tests := []struct {
		name    string
		txt     string
		want    []domain.TxtEntry
		wantErr bool
	}{
		{
			name: "ordered entries",
			txt:  "version=1,path=/home/bin/test.exe",
			want: []domain.TxtEntry{
				{Key: "version", Value: "1"},
				{Key: "path", Value: "/home/bin/test.exe"},
			},
		},
		{
			name: "duplicate keys kept in order",
			txt:  "k=a,k=b",
			want: []domain.TxtEntry{
				{Key: "k", Value: "a"},
				{Key: "k", Value: "b"},
			},
		},
		{
			name: "empty value allowed",
			txt:  "flag=",
			want: []domain.TxtEntry{{Key: "flag", Value: ""}},
		},
		{
			name: "value containing equals",
			txt:  "query=a=b",
			want: []domain.TxtEntry{{Key: "query", Value: "a=b"}},
		},
		{
			name:    "item without equals",
			txt:     "version=1,oops",
			wantErr: true,
		},
		{
			name:    "empty key",
			txt:     "=value",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := p.Parse(map[string]string{
				KeyPublish: "web.local",
				KeyTxt:     tt.txt,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse() = %+v, want error", intent)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(intent.Txt) != len(tt.want) {
				t.Fatalf("Txt length = %d, want %d", len(intent.Txt), len(tt.want))
			}
			for i := range tt.want {
				if intent.Txt[i] != tt.want[i] {
					t.Errorf("Txt[%d] = %+v, want %+v", i, intent.Txt[i], tt.want[i])
				}
			}
		})
	}
}

// The documented end-to-end label example.
func TestParseFullExample(t *testing.T) {
	p := NewParser(testLogger())

	intent, err := p.Parse(map[string]string{
		KeyPublish:     "test2.local:80",
		KeyServiceType: "_http._tcp",
		KeyTxt:         "version=1,path=/home/bin/test.exe",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if intent.Host != "test2.local" {
		t.Errorf("Host = %q, want test2.local", intent.Host)
	}
	if intent.Port != 80 {
		t.Errorf("Port = %d, want 80", intent.Port)
	}
	if intent.ServiceType != "_http._tcp" {
		t.Errorf("ServiceType = %q, want _http._tcp", intent.ServiceType)
	}
	want := []domain.TxtEntry{
		{Key: "version", Value: "1"},
		{Key: "path", Value: "/home/bin/test.exe"},
	}
	if len(intent.Txt) != len(want) {
		t.Fatalf("Txt length = %d, want %d", len(intent.Txt), len(want))
	}
	for i := range want {
		if intent.Txt[i] != want[i] {
			t.Errorf("Txt[%d] = %+v, want %+v", i, intent.Txt[i], want[i])
		}
	}
}
