package resume

import "testing"

func TestDeriveBlocksExcludesVideo(t *testing.T) {
	doc := Document{Sections: []Section{
		{ID: "a", Data: About{Headline: "Dev"}},
		{ID: "v", Data: Video{URL: "https://example.com/v.mp4"}},
		{ID: "s", Data: Skills{Skills: []string{"Go"}}},
		{ID: "c", Data: Contacts{Email: "me@example.com"}},
	}}
	profile := &Profile{Name: "Ada"}

	blocks := DeriveBlocks(doc, profile)
	if len(blocks) != 4 {
		t.Fatalf("expected profile + 3 sections, got %d: %#v", len(blocks), blocks)
	}
	if blocks[0].Kind != BlockProfileCard || blocks[0].Key != ProfileBlockKey {
		t.Fatalf("first block = %#v", blocks[0])
	}
	wantKeys := []string{"section-0", "section-2", "section-3"}
	for i, b := range blocks[1:] {
		if b.Kind != BlockSectionCard {
			t.Fatalf("block %d kind %s", i+1, b.Kind)
		}
		if b.SectionKind == KindVideo {
			t.Fatalf("video section leaked into blocks")
		}
		if b.Key != wantKeys[i] {
			t.Fatalf("block %d key = %s want %s", i+1, b.Key, wantKeys[i])
		}
	}
}

func TestDeriveBlocksWithoutProfile(t *testing.T) {
	doc := Document{Sections: []Section{{Data: Projects{}}, {Data: Video{}}}}

	for _, profile := range []*Profile{nil, {}} {
		blocks := DeriveBlocks(doc, profile)
		if len(blocks) != 1 || blocks[0].SectionKind != KindProjects {
			t.Fatalf("profile %#v: blocks = %#v", profile, blocks)
		}
	}
}

func TestProfileLocationAndName(t *testing.T) {
	p := &Profile{Name: " Ada ", LastName: "Lovelace", Country: "UK"}
	if p.FullName() != "Ada Lovelace" {
		t.Fatalf("full name = %q", p.FullName())
	}
	if p.Location() != "UK" {
		t.Fatalf("location = %q", p.Location())
	}
	p.City = "London"
	if p.Location() != "London, UK" {
		t.Fatalf("location = %q", p.Location())
	}
}
