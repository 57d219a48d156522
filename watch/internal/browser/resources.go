package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Config names are plural, Chrome resource types are singular.
var resourceAliases = map[string]string{
	"image":      "images",
	"font":       "fonts",
	"stylesheet": "stylesheets",
}

// applyResourceBlocking installs a request hijacker that fails requests
// for the configured resource types. Button text never depends on
// images, fonts, media or stylesheets, so blocking them only saves
// bandwidth on every refresh. The returned router must be stopped when
// the page closes.
func applyResourceBlocking(page *rod.Page, types []string) *rod.HijackRouter {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		t := strings.ToLower(string(h.Request.Type()))
		if alias, ok := resourceAliases[t]; ok && blocked[alias] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blocked[t] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
