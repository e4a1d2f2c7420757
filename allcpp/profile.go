// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package allcpp

import (
	"net/http"
	"os"
)

// SignKeyEnv supplies the order signing key.
const SignKeyEnv = "CPPTICKETER_SIGN_KEY"

// Endpoints holds the base URLs. Tests point both at one httptest
// server.
type Endpoints struct {
	User string
	Web  string
}

// DefaultEndpoints returns the production hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		User: "https://user.allcpp.cn",
		Web:  "https://www.allcpp.cn",
	}
}

// Profile is the client identity presented to the platform: the
// headers of the web client and the key its order signatures use.
type Profile struct {
	UserAgent string
	Origin    string
	Referer   string
	SignKey   string
}

// DefaultProfile returns the mobile web client profile. The signing
// key comes from $CPPTICKETER_SIGN_KEY.
func DefaultProfile() Profile {
	return Profile{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		Origin:    "https://cp.allcpp.cn",
		Referer:   "https://cp.allcpp.cn/",
		SignKey:   os.Getenv(SignKeyEnv),
	}
}

// Headers returns the default request headers for this profile.
func (p Profile) Headers() http.Header {
	headers := http.Header{}
	headers.Set("User-Agent", p.UserAgent)
	headers.Set("Accept", "application/json, text/plain, */*")
	headers.Set("Accept-Language", "zh-CN,zh;q=0.9")
	if p.Origin != "" {
		headers.Set("Origin", p.Origin)
	}
	if p.Referer != "" {
		headers.Set("Referer", p.Referer)
	}
	return headers
}
