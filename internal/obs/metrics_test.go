package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                "/",
		"/metrics":                        "/metrics",
		"/api/users/abc":                  "/api/users/:id",
		"/api/users/abc/extra":            "/api/users/abc/extra",
		"/api/users/":                     "/api/users/",
		"/auth/login":                     "/auth/login",
		"/roles-permission/get-roles?x=1": "/roles-permission/get-roles",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
