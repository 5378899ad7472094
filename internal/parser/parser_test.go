package parser

import (
	"reflect"
	"testing"
)

func TestImageRefs_InlineSyntax(t *testing.T) {
	content := `これはテキストです。
![alt text](image1.png)
これもテキスト。
![another alt](images/image2.jpg?query=param#fragment)
外部リンクは無視: ![ext](http://example.com/image.gif)
`
	refs := ImageRefs(content)
	want := map[string]struct{}{
		"image1.png":        {},
		"images/image2.jpg": {},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
}

func TestImageRefs_WikiSyntax(t *testing.T) {
	content := `テキスト ![[image3.bmp]] テキスト。
パス付き ![[assets/image4.svg]]
拡張子なし ![[image5]]
`
	refs := ImageRefs(content)
	want := map[string]struct{}{
		"image3.bmp":        {},
		"assets/image4.svg": {},
		"image5":            {},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
}

func TestImageRefs_Mixed(t *testing.T) {
	content := "![md](markdown.png) と ![[wiki.gif]] が混在。\n![[no_ext]]\n"
	refs := ImageRefs(content)
	want := map[string]struct{}{
		"markdown.png": {},
		"wiki.gif":     {},
		"no_ext":       {},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}
}

func TestImageRefs_NoImages(t *testing.T) {
	refs := ImageRefs("画像がないテキストです。")
	if len(refs) != 0 {
		t.Errorf("expected no refs, got %v", refs)
	}
}

func TestSplit_Basic(t *testing.T) {
	content := `
# 見出し1
内容1-1
内容1-2

## 見出し1.1
内容1.1-1

# 見出し2
内容2-1
![[image.png]]
`
	res := Split(content, "2024-01-01")

	if _, ok := res.ImageRefs["image.png"]; !ok || len(res.ImageRefs) != 1 {
		t.Errorf("image refs = %v, want {image.png}", res.ImageRefs)
	}

	// Sub-headings become independent keys.
	wantH1 := []string{"## 2024-01-01", "", "内容1-1", "内容1-2", "", ""}
	if got := res.Sections["# 見出し1"]; !reflect.DeepEqual(got, wantH1) {
		t.Errorf("section 見出し1 = %q, want %q", got, wantH1)
	}
	wantH11 := []string{"## 2024-01-01", "", "内容1.1-1", "", ""}
	if got := res.Sections["## 見出し1.1"]; !reflect.DeepEqual(got, wantH11) {
		t.Errorf("section 見出し1.1 = %q, want %q", got, wantH11)
	}
	wantH2 := []string{"## 2024-01-01", "", "内容2-1", "![[image.png]]", "", ""}
	if got := res.Sections["# 見出し2"]; !reflect.DeepEqual(got, wantH2) {
		t.Errorf("section 見出し2 = %q, want %q", got, wantH2)
	}
}

func TestSplit_NoHeading(t *testing.T) {
	res := Split("最初の見出しがない内容です。", "2024-01-02")

	if len(res.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %v", len(res.Sections), res.Sections)
	}
	want := []string{"## 2024-01-02", "", "最初の見出しがない内容です。", ""}
	if got := res.Sections[DefaultHeading]; !reflect.DeepEqual(got, want) {
		t.Errorf("default section = %q, want %q", got, want)
	}
}

func TestSplit_BlankSectionLeftUntagged(t *testing.T) {
	res := Split("# 空の見出し\n\n   \n", "2024-01-03")

	got, ok := res.Sections["# 空の見出し"]
	if !ok {
		t.Fatal("blank section should still be present")
	}
	if !IsBlank(got) {
		t.Errorf("blank section should not receive a date marker: %q", got)
	}
	// The default sentinel exists but stays blank too.
	if !IsBlank(res.Sections[DefaultHeading]) {
		t.Errorf("default section should be blank: %q", res.Sections[DefaultHeading])
	}
}

func TestSplit_SevenHashesIsNotAHeading(t *testing.T) {
	res := Split("####### 深すぎる\n本文", "2024-01-04")
	if _, ok := res.Sections["####### 深すぎる"]; ok {
		t.Error("seven hashes should not start a section")
	}
	body := res.Sections[DefaultHeading]
	want := []string{"## 2024-01-04", "", "####### 深すぎる", "本文", ""}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("default section = %q, want %q", body, want)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(nil) {
		t.Error("nil should be blank")
	}
	if !IsBlank([]string{"", "  ", "\t"}) {
		t.Error("whitespace-only lines should be blank")
	}
	if IsBlank([]string{"", "x"}) {
		t.Error("non-empty line should not be blank")
	}
}
