package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ShafiqSadat/RouterOSClient/internal/testutil/routertest"
)

func TestRunExecutePrintsRows(t *testing.T) {
	device := routertest.Start(t, routertest.Script{
		"/interface/print": {
			{"!re", "=name=ether1", "=running=true"},
			{"!re", "=name=ether2", "=running=false"},
			{"!done"},
		},
	})

	var out bytes.Buffer
	err := run([]string{
		"-address", device.Addr(),
		"-user", "admin",
		"-password", "secret",
		"/interface/print",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "name=ether1\trunning=true\nname=ether2\trunning=false\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRunExecuteWithArguments(t *testing.T) {
	device := routertest.Start(t, routertest.Script{
		"/ip/hotspot/user/print": {
			{"!re", "=name=guest"},
			{"!done"},
		},
	})

	var out bytes.Buffer
	err := run([]string{
		"-address", device.Addr(),
		"-user", "admin",
		"/ip/hotspot/user/print", "profile=1d",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, sentence := range device.Received() {
		if sentence[0] != "/ip/hotspot/user/print" {
			continue
		}
		if len(sentence) != 2 || sentence[1] != "=profile=1d" {
			t.Fatalf("command sentence = %q, want the marked argument", sentence)
		}
		return
	}
	t.Fatal("device never saw the command")
}

func TestRunStream(t *testing.T) {
	device := routertest.Start(t, routertest.Script{
		"/ip/address/print": {
			{"!re", "=address=10.0.0.1/24"},
			{"!re", "=address=10.0.0.2/24"},
			{"!done"},
		},
	})

	var out bytes.Buffer
	err := run([]string{
		"-address", device.Addr(),
		"-user", "admin",
		"-stream",
		"/ip/address/print",
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "address=10.0.0.1/24\naddress=10.0.0.2/24\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRunProbe(t *testing.T) {
	device := routertest.Start(t, routertest.Script{
		"/system/identity/print": {
			{"!re", "=name=MikroTik"},
			{"!done"},
		},
	})

	var out bytes.Buffer
	if err := run([]string{"-address", device.Addr(), "-user", "admin", "-probe"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "alive\n" {
		t.Fatalf("output = %q, want alive", out.String())
	}
}

func TestRunCommandRequired(t *testing.T) {
	device := routertest.Start(t, routertest.Script{})

	err := run([]string{"-address", device.Addr(), "-user", "admin"}, io.Discard)
	if err == nil {
		t.Fatal("run without a command succeeded")
	}
}

func TestRunTrapReportedAsError(t *testing.T) {
	device := routertest.Start(t, routertest.Script{
		"/file/print": {
			{"!trap", "=message=not permitted"},
			{"!done"},
		},
	})

	err := run([]string{"-address", device.Addr(), "-user", "admin", "/file/print"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "not permitted") {
		t.Fatalf("run = %v, want the trap message", err)
	}
}

func TestListenerServesHealthAndMetrics(t *testing.T) {
	router := newListenerRouter("", zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read healthz: %v", err)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("healthz body = %s", body)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "routeros_session_reply_rows_total") {
		t.Fatal("metrics output missing session counters")
	}
}

func TestListenerRequiresToken(t *testing.T) {
	router := newListenerRouter("sekrit", zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get healthz with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
