package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func regeoServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/geocode/regeo" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		// Amap expects longitude first
		loc := r.URL.Query().Get("location")
		if !strings.HasPrefix(loc, "116.4") {
			t.Errorf("location should lead with longitude, got %q", loc)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

// TestReverseGeocodeAssemblesAddress verifies the assembled address
// joins the administrative parts and the nearest POI without separators.
func TestReverseGeocodeAssemblesAddress(t *testing.T) {
	server := regeoServer(t, `{
		"status": "1",
		"info": "OK",
		"regeocode": {
			"formatted_address": "北京市朝阳区三里屯街道",
			"addressComponent": {
				"province": "北京市",
				"city": [],
				"district": "朝阳区",
				"township": "三里屯街道"
			},
			"pois": [{"name": "三里屯太古里"}]
		}
	}`)
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	got, err := client.ReverseGeocode(context.Background(), 39.93, 116.45)
	if err != nil {
		t.Fatalf("reverse geocode: %v", err)
	}
	want := "北京市朝阳区三里屯街道三里屯太古里"
	if got != want {
		t.Fatalf("address = %q, want %q", got, want)
	}
}

// TestReverseGeocodeFallsBackToFormattedAddress verifies the formatted
// address is used when no components are present.
func TestReverseGeocodeFallsBackToFormattedAddress(t *testing.T) {
	server := regeoServer(t, `{
		"status": "1",
		"info": "OK",
		"regeocode": {
			"formatted_address": "中华人民共和国某处",
			"addressComponent": {
				"province": "中华人民共和国",
				"city": [],
				"district": [],
				"township": []
			},
			"pois": []
		}
	}`)
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	got, err := client.ReverseGeocode(context.Background(), 39.93, 116.45)
	if err != nil {
		t.Fatalf("reverse geocode: %v", err)
	}
	if got != "中华人民共和国某处" {
		t.Fatalf("address = %q", got)
	}
}

// TestReverseGeocodeSkipsDuplicateCity verifies municipality responses
// where city repeats province do not duplicate the name.
func TestReverseGeocodeSkipsDuplicateCity(t *testing.T) {
	server := regeoServer(t, `{
		"status": "1",
		"info": "OK",
		"regeocode": {
			"formatted_address": "",
			"addressComponent": {
				"province": "上海市",
				"city": "上海市",
				"district": "徐汇区",
				"township": []
			},
			"pois": []
		}
	}`)
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	got, err := client.ReverseGeocode(context.Background(), 31.2, 116.43)
	if err != nil {
		t.Fatalf("reverse geocode: %v", err)
	}
	if got != "上海市徐汇区" {
		t.Fatalf("address = %q, want 上海市徐汇区", got)
	}
}

// TestReverseGeocodeAPIError verifies a non-success status becomes an
// error.
func TestReverseGeocodeAPIError(t *testing.T) {
	server := regeoServer(t, `{"status": "0", "info": "INVALID_USER_KEY"}`)
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	if _, err := client.ReverseGeocode(context.Background(), 39.93, 116.45); err == nil {
		t.Fatal("expected error for status 0")
	}
}

// TestReverseGeocodeDisabled verifies a keyless client refuses requests.
func TestReverseGeocodeDisabled(t *testing.T) {
	client := NewClient("", "")
	if client.Enabled() {
		t.Fatal("client without key should be disabled")
	}
	if _, err := client.ReverseGeocode(context.Background(), 1, 2); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
