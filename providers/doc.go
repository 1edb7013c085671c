// Package providers groups the upstream adapters used by the linking
// workflow: plaid is the bank-data aggregator, dwolla is the payment
// processor. devkit carries scripted transports and conformance checks.
package providers
