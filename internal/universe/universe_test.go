package universe

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eligible_stocks.txt")
	if err := os.WriteFile(path, []byte("RELIANCE.NS\n\n  TCS.NS \nINFY.NS\nTCS.NS\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTickers(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"RELIANCE.NS", "TCS.NS", "INFY.NS"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLoadTickers_Missing(t *testing.T) {
	if _, err := LoadTickers(filepath.Join(t.TempDir(), "nope.txt")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	data := "Company,Yahoo_Equivalent_Code\n" +
		"Reliance,RELIANCE.NS\n" +
		"Tata, 'TCS.NS',\n" +
		"Empty,\n" +
		"Reliance again,RELIANCE.NS\n" +
		"Short\n"
	got, err := ReadCSV(strings.NewReader(data), "Yahoo_Equivalent_Code")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"RELIANCE.NS", " 'TCS.NS'"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), "Yahoo_Equivalent_Code"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		" 'TCS.NS', ": "TCS.NS",
		"\"INFY.NS\"": "INFY.NS",
		"ABC":         "ABC",
		" , ":         "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestAppendTickers_NeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "eligible_stocks.txt")
	if err := AppendTickers(path, []string{"A.NS", "B.NS"}); err != nil {
		t.Fatal(err)
	}
	if err := AppendTickers(path, []string{"C.NS"}); err != nil {
		t.Fatal(err)
	}
	if err := AppendTickers(path, nil); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "A.NS\nB.NS\nC.NS\n" {
		t.Errorf("unexpected content %q", got)
	}
}
