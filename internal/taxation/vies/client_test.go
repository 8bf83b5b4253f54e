package vies

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const validResponse = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Header/><env:Body>
<ns2:checkVatResponse xmlns:ns2="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
<ns2:countryCode>AT</ns2:countryCode><ns2:vatNumber>U12345678</ns2:vatNumber>
<ns2:requestDate>2024-01-02+01:00</ns2:requestDate><ns2:valid>true</ns2:valid>
<ns2:name>ACME GMBH</ns2:name><ns2:address> WIEN </ns2:address>
</ns2:checkVatResponse></env:Body></env:Envelope>`

const invalidResponse = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body>
<ns2:checkVatResponse xmlns:ns2="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
<ns2:countryCode>AT</ns2:countryCode><ns2:vatNumber>U0</ns2:vatNumber><ns2:valid>false</ns2:valid>
</ns2:checkVatResponse></env:Body></env:Envelope>`

const faultResponse = `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body>
<env:Fault><faultcode>env:Server</faultcode><faultstring>MS_UNAVAILABLE</faultstring></env:Fault>
</env:Body></env:Envelope>`

func newTestServer(t *testing.T, status int, body string, captured *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if captured != nil {
			*captured = string(data)
		}
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckValid(t *testing.T) {
	var request string
	srv := newTestServer(t, http.StatusOK, validResponse, &request)
	client := NewClient(Options{Endpoint: srv.URL})

	res, err := client.Check(context.Background(), "at", "ATU 123-456.78")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !res.Valid || res.Name != "ACME GMBH" || res.Address != "WIEN" {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, want := range []string{"<urn:countryCode>AT</urn:countryCode>", "<urn:vatNumber>U12345678</urn:vatNumber>", typesNS} {
		if !strings.Contains(request, want) {
			t.Fatalf("request missing %q:\n%s", want, request)
		}
	}
}

func TestValidateInvalid(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, invalidResponse, nil)
	valid, err := NewClient(Options{Endpoint: srv.URL}).Validate(context.Background(), "AT", "U0")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if valid {
		t.Fatal("expected invalid VAT number")
	}
}

func TestValidateFault(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, faultResponse, nil)
	_, err := NewClient(Options{Endpoint: srv.URL}).Validate(context.Background(), "AT", "U1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Validate error = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), "MS_UNAVAILABLE") {
		t.Fatalf("fault string missing from %v", err)
	}
}

func TestValidateTransportError(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, validResponse, nil)
	url := srv.URL
	srv.Close()
	_, err := NewClient(Options{Endpoint: url, Timeout: time.Second}).Validate(context.Background(), "AT", "U1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Validate error = %v, want ErrUnavailable", err)
	}
}

func TestNormalizeGreece(t *testing.T) {
	cc, vat := normalize("GR", "GR 094 014 201")
	if cc != "EL" || vat != "094014201" {
		t.Fatalf("normalize = %q %q", cc, vat)
	}
	cc, vat = normalize("gr", "EL094014201")
	if cc != "EL" || vat != "094014201" {
		t.Fatalf("normalize = %q %q", cc, vat)
	}
}

type countingValidator struct {
	calls int
	valid bool
	err   error
}

func (c *countingValidator) Validate(context.Context, string, string) (bool, error) {
	c.calls++
	return c.valid, c.err
}

func TestCachedValidator(t *testing.T) {
	next := &countingValidator{valid: true}
	cached := NewCachedValidator(next, 8, time.Minute)
	for i := 0; i < 3; i++ {
		valid, err := cached.Validate(context.Background(), "AT", "ATU123")
		if err != nil || !valid {
			t.Fatalf("Validate = %v, %v", valid, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", next.calls)
	}
	if _, err := cached.Validate(context.Background(), "at", "U123"); err != nil {
		t.Fatal(err)
	}
	if next.calls != 1 {
		t.Fatalf("normalized key missed cache, calls = %d", next.calls)
	}

	failing := &countingValidator{err: ErrUnavailable}
	cached = NewCachedValidator(failing, 8, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cached.Validate(context.Background(), "AT", "U9"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Validate error = %v", err)
		}
	}
	if failing.calls != 2 || cached.Len() != 0 {
		t.Fatalf("failures must not be cached: calls=%d len=%d", failing.calls, cached.Len())
	}
}
