// Package vies checks EU VAT registrations against the European Commission's
// VAT Information Exchange System.
package vies

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultEndpoint is the public checkVat SOAP service.
const DefaultEndpoint = "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"

// ErrUnavailable wraps SOAP faults and transport failures. Callers treat it as
// "unknown" rather than "invalid".
var ErrUnavailable = errors.New("vies: service unavailable")

// Options controls how the VIES client is configured.
type Options struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client performs checkVat calls.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Result is the registry answer for one VAT number.
type Result struct {
	CountryCode string
	VATNumber   string
	Valid       bool
	Name        string
	Address     string
	RequestDate string
}

// NewClient builds a client; a nil HTTP client gets one with opts.Timeout.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "vies").Logger()
	}
	return &Client{endpoint: endpoint, httpClient: client, logger: logger}
}

// Validate reports whether number is a registered VAT number in country.
func (c *Client) Validate(ctx context.Context, country, number string) (bool, error) {
	res, err := c.Check(ctx, country, number)
	if err != nil {
		return false, err
	}
	return res.Valid, nil
}

// Check queries VIES for the VAT number. ISO country GR is sent as EL and a
// repeated country prefix on the number is stripped.
func (c *Client) Check(ctx context.Context, country, number string) (*Result, error) {
	cc, vat := normalize(country, number)
	if cc == "" || vat == "" {
		return nil, fmt.Errorf("vies: country and VAT number are required")
	}

	var body bytes.Buffer
	body.WriteString(xml.Header)
	if err := xml.NewEncoder(&body).Encode(newEnvelope(cc, vat)); err != nil {
		return nil, fmt.Errorf("vies: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("vies: create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var env responseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("vies: decode response: %w", err)
	}
	if f := env.Body.Fault; f != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(f.String))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	r := env.Body.Response
	if r == nil {
		return nil, fmt.Errorf("vies: empty checkVat response")
	}

	c.logger.Debug().
		Str("country", cc).
		Bool("valid", r.Valid).
		Dur("took", time.Since(start)).
		Msg("vies: checked VAT number")

	return &Result{
		CountryCode: r.CountryCode,
		VATNumber:   r.VATNumber,
		Valid:       r.Valid,
		Name:        strings.TrimSpace(r.Name),
		Address:     strings.TrimSpace(r.Address),
		RequestDate: r.RequestDate,
	}, nil
}

func normalize(country, number string) (string, string) {
	cc := strings.ToUpper(strings.TrimSpace(country))
	if cc == "GR" {
		cc = "EL"
	}
	vat := strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return -1
		}
		return r
	}, number))
	vat = strings.TrimPrefix(vat, cc)
	if cc == "EL" {
		vat = strings.TrimPrefix(vat, "GR")
	}
	return cc, vat
}

const (
	soapNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	typesNS = "urn:ec.europa.eu:taxud:vies:services:checkVat:types"
)

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapNS  string      `xml:"xmlns:soapenv,attr"`
	TypesNS string      `xml:"xmlns:urn,attr"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	CheckVat checkVat `xml:"urn:checkVat"`
}

type checkVat struct {
	CountryCode string `xml:"urn:countryCode"`
	VATNumber   string `xml:"urn:vatNumber"`
}

func newEnvelope(country, number string) requestEnvelope {
	return requestEnvelope{
		SoapNS:  soapNS,
		TypesNS: typesNS,
		Body:    requestBody{CheckVat: checkVat{CountryCode: country, VATNumber: number}},
	}
}

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Response *checkVatResponse `xml:"checkVatResponse"`
	Fault    *soapFault        `xml:"Fault"`
}

type checkVatResponse struct {
	CountryCode string `xml:"countryCode"`
	VATNumber   string `xml:"vatNumber"`
	RequestDate string `xml:"requestDate"`
	Valid       bool   `xml:"valid"`
	Name        string `xml:"name"`
	Address     string `xml:"address"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}
