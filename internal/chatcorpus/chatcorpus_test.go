package chatcorpus

import "testing"

func TestPickWrapsIndices(t *testing.T) {
	c := &Corpus{lines: []string{"a", "b", "c"}}
	cases := map[int]string{
		0:  "a",
		1:  "b",
		2:  "c",
		3:  "a",
		-1: "c",
		-4: "c",
	}
	for i, want := range cases {
		if got := c.Pick(i); got != want {
			t.Errorf("Pick(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestPickOnEmptyCorpusReturnsEmptyString(t *testing.T) {
	c := &Corpus{}
	if got := c.Pick(5); got != "" {
		t.Fatalf("Pick(5) on empty corpus = %q, want empty string", got)
	}
}

func TestLoadDefaultsWhenNoFileGiven(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("Load(\"\") produced an empty corpus")
	}
}
