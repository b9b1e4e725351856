package fileformat

import "testing"

func TestConvertDateFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"YYYY-MM-DD", "%Y-%m-%d"},
		{"YYYY-MM-DD HH:MM", "%Y-%m-%d %H:%M"},
		{"YYYY-MM-DD HH:MM:SS", "%Y-%m-%d %H:%M:%S"},
		{"DD/MM/YYYY", "%d/%m/%Y"},
		{"MM/DD/YY", "%m/%d/%y"},
		{"YYYYMMDD", "%Y%m%d"},
	}
	for _, tt := range tests {
		if got := ConvertDateFormat(tt.in); got != tt.want {
			t.Errorf("ConvertDateFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeLayout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"%Y-%m-%d", "2006-01-02"},
		{"%d/%m/%Y", "02/01/2006"},
		{"%Y-%m-%d %H:%M:%S", "2006-01-02 15:04:05"},
		{"%m/%d/%y", "01/02/06"},
	}
	for _, tt := range tests {
		if got := timeLayout(tt.in); got != tt.want {
			t.Errorf("timeLayout(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
