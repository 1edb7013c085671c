package devkit

import (
	"net/http"

	"github.com/goliatone/go-banklink/core"
)

const (
	SandboxPublicToken    = "public-sandbox-7b61c5"
	SandboxAccessToken    = "access-sandbox-de3ce8"
	SandboxItemID         = "M5eVJqLnv3tbzdngLDp9FL5OlDNxlNhlE55op"
	SandboxAccountID      = "vzeNDwK7KQIm4yEog683uElbp9GRLEFXGK98D"
	SandboxProcessorToken = "processor-sandbox-0asd1-a92nc"
	SandboxCustomerURL    = "https://api-sandbox.dwolla.com/customers/FC451A7A-AE30-4404-AB95-E3553FCD733F"
	SandboxCustomerID     = "FC451A7A-AE30-4404-AB95-E3553FCD733F"
	SandboxFundingURL     = "https://api-sandbox.dwolla.com/funding-sources/375c6781-2a17-476c-84f7-db7d2f6ffb31"
	SandboxAuthorization  = "https://api-sandbox.dwolla.com/on-demand-authorizations/30e7c028-0bdf-e511-80de-0aa34a9b2388"
)

func JSONResponse(status int, body string) core.TransportResponse {
	return core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}
}

func CreatedResponse(location string) core.TransportResponse {
	return core.TransportResponse{
		StatusCode: http.StatusCreated,
		Headers:    map[string]string{"Location": location},
	}
}

// PlaidSandboxScripts answers every aggregator endpoint with sandbox data.
func PlaidSandboxScripts() []TransportScript {
	return []TransportScript{
		Route(http.MethodPost, "/item/public_token/exchange", JSONResponse(http.StatusOK,
			`{"access_token":"`+SandboxAccessToken+`","item_id":"`+SandboxItemID+`","request_id":"req_exchange"}`)),
		Route(http.MethodPost, "/accounts/get", JSONResponse(http.StatusOK,
			`{"accounts":[{"account_id":"`+SandboxAccountID+`","name":"Plaid Checking","mask":"0000","type":"depository","subtype":"checking"},`+
				`{"account_id":"acc_savings","name":"Plaid Saving","mask":"1111","type":"depository","subtype":"savings"}],`+
				`"item":{"item_id":"`+SandboxItemID+`"},"request_id":"req_accounts"}`)),
		Route(http.MethodPost, "/processor/token/create", JSONResponse(http.StatusOK,
			`{"processor_token":"`+SandboxProcessorToken+`","request_id":"req_processor"}`)),
		Route(http.MethodPost, "/link/token/create", JSONResponse(http.StatusOK,
			`{"link_token":"link-sandbox-af1a0311","expiration":"2026-10-17T16:00:00Z","request_id":"req_link"}`)),
	}
}

// DwollaSandboxScripts answers token, customer, authorization and funding
// source endpoints.
func DwollaSandboxScripts() []TransportScript {
	return []TransportScript{
		Route(http.MethodPost, "/token", JSONResponse(http.StatusOK,
			`{"access_token":"dwolla-app-token","token_type":"bearer","expires_in":3600}`)),
		Route(http.MethodPost, "/funding-sources", CreatedResponse(SandboxFundingURL)),
		Route(http.MethodPost, "/on-demand-authorizations", JSONResponse(http.StatusOK,
			`{"_links":{"self":{"href":"`+SandboxAuthorization+`"}},"bodyText":"I agree","buttonText":"Agree & Continue"}`)),
		Route(http.MethodPost, "/customers", CreatedResponse(SandboxCustomerURL)),
	}
}
