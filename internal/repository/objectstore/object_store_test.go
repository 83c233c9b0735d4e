package objectstore

import "testing"

func TestIsRemote(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"s3://bucket/sets/app.apks", true},
		{"gs://bucket/sets/app.apks", true},
		{"/tmp/app.apks", false},
		{"app.apks", false},
		{"s3Ish/app.apks", false},
	}

	for _, tt := range tests {
		if got := IsRemote(tt.path); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Destination
		wantErr bool
	}{
		{
			name: "s3 destination",
			uri:  "s3://releases/sets/app.apks",
			want: Destination{Type: S3Type, Bucket: "releases", Key: "sets/app.apks"},
		},
		{
			name: "gcs destination",
			uri:  "gs://releases/app.apks",
			want: Destination{Type: GCSType, Bucket: "releases", Key: "app.apks"},
		},
		{
			name:    "missing key",
			uri:     "s3://releases",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			uri:     "ftp://releases/app.apks",
			wantErr: true,
		},
		{
			name:    "no scheme",
			uri:     "releases/app.apks",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDestination(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDestination(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDestination(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
		})
	}
}
