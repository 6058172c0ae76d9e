package wiki

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		opts   *MoveOptions
		want   map[string]string
		absent []string
	}{
		{
			name:   "defaults move the talk page",
			opts:   nil,
			want:   map[string]string{"from": "Sandbox", "to": "Sandbox2", "reason": "", "token": "cached-token", "movetalk": "1"},
			absent: []string{"noredirect"},
		},
		{
			name:   "leave talk without redirect",
			opts:   &MoveOptions{Reason: "rename", LeaveTalk: true, NoRedirect: true},
			want:   map[string]string{"reason": "rename", "noredirect": "1"},
			absent: []string{"movetalk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newFakeSession()
			site.post = func(string, url.Values) (map[string]interface{}, error) {
				return map[string]interface{}{
					"move": map[string]interface{}{
						"from":            "Sandbox",
						"to":              "Sandbox2",
						"reason":          "rename",
						"redirectcreated": "",
						"talkfrom":        "Talk:Sandbox",
						"talkto":          "Talk:Sandbox2",
					},
				}, nil
			}
			p := newTestPage(t, site, existingInfo("Sandbox"))

			res, err := p.Move(context.Background(), "Sandbox2", tt.opts)
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if res.From != "Sandbox" || res.To != "Sandbox2" || !res.RedirectCreated || res.TalkTo != "Talk:Sandbox2" {
				t.Errorf("MoveResult = %+v", res)
			}
			if site.tokenCalls[0].kind != "move" {
				t.Errorf("token kind = %q, want move", site.tokenCalls[0].kind)
			}

			call := site.posts[0]
			if call.action != "move" {
				t.Errorf("action = %q, want move", call.action)
			}
			for k, v := range tt.want {
				if !call.params.Has(k) || call.params.Get(k) != v {
					t.Errorf("param %s = %q, want %q", k, call.params.Get(k), v)
				}
			}
			for _, k := range tt.absent {
				if call.params.Has(k) {
					t.Errorf("param %s present, want absent", k)
				}
			}
		})
	}
}

func TestMove_Preconditions(t *testing.T) {
	t.Run("missing move right", func(t *testing.T) {
		site := newFakeSession()
		site.rights = []string{"read", "edit"}
		p := newTestPage(t, site, existingInfo("Sandbox"))

		_, err := p.Move(context.Background(), "Elsewhere", nil)
		var perm *InsufficientPermissionError
		if !errors.As(err, &perm) || perm.Action != "move" {
			t.Fatalf("error = %v, want move *InsufficientPermissionError", err)
		}
		if len(site.tokenCalls) != 0 || site.postCount() != 0 {
			t.Error("permission failure reached the network")
		}
	})

	t.Run("sysop move protection", func(t *testing.T) {
		site := newFakeSession()
		info := existingInfo("Sandbox")
		info["protection"] = []interface{}{
			map[string]interface{}{"type": "move", "level": "sysop", "expiry": "infinity"},
		}
		p := newTestPage(t, site, info)

		_, err := p.Move(context.Background(), "Elsewhere", nil)
		var perm *InsufficientPermissionError
		if !errors.As(err, &perm) {
			t.Fatalf("error = %v, want *InsufficientPermissionError", err)
		}
	})

	t.Run("write API disabled", func(t *testing.T) {
		site := newFakeSession()
		site.writeAPI = false
		p := newTestPage(t, site, existingInfo("Sandbox"))

		_, err := p.Move(context.Background(), "Elsewhere", nil)
		var noWrite *NoWriteAPIError
		if !errors.As(err, &noWrite) {
			t.Fatalf("error = %v, want *NoWriteAPIError", err)
		}
		if len(site.tokenCalls) != 0 {
			t.Error("token requested although the write API is disabled")
		}
	})
}

func TestDelete(t *testing.T) {
	site := newFakeSession()
	site.post = func(string, url.Values) (map[string]interface{}, error) {
		return map[string]interface{}{
			"delete": map[string]interface{}{"title": "Sandbox", "reason": "cleanup", "logid": float64(3310)},
		}, nil
	}
	p := newTestPage(t, site, existingInfo("Sandbox"))

	res, err := p.Delete(context.Background(), &DeleteOptions{
		Reason:   "cleanup",
		Watch:    true,
		Unwatch:  true,
		OldImage: "20200101000000!Example.png",
	})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if res.LogID != 3310 || res.Title != "Sandbox" {
		t.Errorf("DeleteResult = %+v", res)
	}
	if site.tokenCalls[0].kind != "delete" {
		t.Errorf("token kind = %q, want delete", site.tokenCalls[0].kind)
	}

	call := site.posts[0]
	want := map[string]string{
		"title":    "Sandbox",
		"reason":   "cleanup",
		"token":    "cached-token",
		"watch":    "1",
		"unwatch":  "1",
		"oldimage": "20200101000000!Example.png",
	}
	for k, v := range want {
		if got := call.params.Get(k); got != v {
			t.Errorf("param %s = %q, want %q", k, got, v)
		}
	}
}

func TestDelete_DefaultsOmitFlags(t *testing.T) {
	site := newFakeSession()
	site.post = func(string, url.Values) (map[string]interface{}, error) {
		return map[string]interface{}{"delete": map[string]interface{}{"title": "Sandbox"}}, nil
	}
	p := newTestPage(t, site, existingInfo("Sandbox"))

	if _, err := p.Delete(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"watch", "unwatch", "oldimage"} {
		if site.posts[0].params.Has(k) {
			t.Errorf("param %s present, want absent", k)
		}
	}
}

func TestDelete_Preconditions(t *testing.T) {
	site := newFakeSession()
	site.rights = []string{"read", "edit"}
	p := newTestPage(t, site, existingInfo("Sandbox"))

	_, err := p.Delete(context.Background(), nil)
	var perm *InsufficientPermissionError
	if !errors.As(err, &perm) || perm.Action != "delete" {
		t.Fatalf("error = %v, want delete *InsufficientPermissionError", err)
	}

	site.rights = []string{"delete"}
	site.writeAPI = false
	_, err = p.Delete(context.Background(), nil)
	var noWrite *NoWriteAPIError
	if !errors.As(err, &noWrite) {
		t.Fatalf("error = %v, want *NoWriteAPIError", err)
	}
	if len(site.tokenCalls) != 0 || site.postCount() != 0 {
		t.Error("precondition failure reached the network")
	}
}

func TestPurge(t *testing.T) {
	site := newFakeSession()
	site.post = func(string, url.Values) (map[string]interface{}, error) {
		return map[string]interface{}{"purge": []interface{}{map[string]interface{}{"title": "Sandbox", "purged": ""}}}, nil
	}
	p := newTestPage(t, site, existingInfo("Sandbox"))

	if err := p.Purge(context.Background()); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	call := site.posts[0]
	if call.action != "purge" || call.params.Get("titles") != "Sandbox" {
		t.Errorf("purge call = %+v", call)
	}
	if len(site.tokenCalls) != 0 {
		t.Error("purge requested a token")
	}
}

func TestPurge_Error(t *testing.T) {
	site := newFakeSession()
	site.post = func(string, url.Values) (map[string]interface{}, error) {
		return nil, &APIError{Code: "cantpurge", Info: "Only users with the purge right can purge"}
	}
	p := newTestPage(t, site, existingInfo("Sandbox"))

	if err := p.Purge(context.Background()); !IsAPIError(err, "cantpurge") {
		t.Errorf("error = %v, want wrapped cantpurge", err)
	}
}
