package storage

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		in     string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://data/incoming/orders.csv", "data", "incoming/orders.csv", true},
		{"s3://data/x", "data", "x", true},
		{"s3://data", "", "", false},
		{"s3://data/", "", "", false},
		{"s3:///key", "", "", false},
		{"http://data/key", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, err := ParseURL(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseURL(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseURL(%q) = %q, %q", tt.in, bucket, key)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("s3://bucket/key") {
		t.Error("IsURL(s3://bucket/key) = false")
	}
	if IsURL("/tmp/file.csv") {
		t.Error("IsURL(/tmp/file.csv) = true")
	}
}
