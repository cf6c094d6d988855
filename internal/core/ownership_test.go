package core

import "testing"

func TestClassifyAccount(t *testing.T) {
	me := User{ID: "me"}
	you := User{ID: "you"}
	them := User{ID: "them"}

	cases := []struct {
		name   string
		owners []User
		want   OwnershipGroup
	}{
		{"sole owner", []User{me}, Owned},
		{"joint with self", []User{you, me}, Common},
		{"someone else", []User{you}, Others},
		{"joint without self", []User{you, them}, Others},
		{"no owners", nil, Others},
	}
	for _, tc := range cases {
		got := ClassifyAccount(Account{ID: "a", Owners: tc.owners}, me.ID)
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestGroupPartitionOptions(t *testing.T) {
	me := User{ID: "me"}
	other := User{ID: "other"}
	shared := Account{ID: "shared", Owners: []User{me, other}}
	mine := Account{ID: "mine", Owners: []User{me}, IsOwned: true}
	theirs := Account{ID: "theirs", Owners: []User{other}}

	options := []PartitionOption{
		{Partition: Partition{ID: "t1"}, Account: theirs},
		{Partition: Partition{ID: "s1"}, Account: shared},
		{Partition: Partition{ID: "m1"}, Account: mine},
		{Partition: Partition{ID: "s2"}, Account: shared},
		{Partition: Partition{ID: "m2"}, Account: mine},
	}

	groups := GroupPartitionOptions(options, me.ID, false)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantOrder := []struct {
		account string
		ids     []string
	}{
		{"mine", []string{"m1", "m2"}},
		{"shared", []string{"s1", "s2"}},
		{"theirs", []string{"t1"}},
	}
	for i, want := range wantOrder {
		g := groups[i]
		if g.Account.ID != want.account {
			t.Fatalf("group %d: expected account %s, got %s", i, want.account, g.Account.ID)
		}
		if len(g.Options) != len(want.ids) {
			t.Fatalf("group %d: expected %d options, got %d", i, len(want.ids), len(g.Options))
		}
		for j, id := range want.ids {
			if g.Options[j].Partition.ID != id {
				t.Fatalf("group %d option %d: expected %s, got %s", i, j, id, g.Options[j].Partition.ID)
			}
		}
	}

	owned := GroupPartitionOptions(options, me.ID, true)
	if len(owned) != 1 || owned[0].Account.ID != "mine" || owned[0].Group != Owned {
		t.Fatalf("expected only owned account, got %+v", owned)
	}
}

func TestGroupAccounts(t *testing.T) {
	accounts := []Account{
		{ID: "a", Owners: []User{{ID: "me"}}},
		{ID: "b", Owners: []User{{ID: "x"}}},
		{ID: "c", Owners: []User{{ID: "me"}}},
	}
	groups := GroupAccounts(accounts, "me")
	if len(groups[Owned]) != 2 || groups[Owned][1].ID != "c" {
		t.Fatalf("unexpected owned group: %+v", groups[Owned])
	}
	if len(groups[Others]) != 1 || len(groups[Common]) != 0 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}
