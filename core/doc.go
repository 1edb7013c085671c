// Package core contains the bank-linking domain contracts, entities, and the
// account-linking workflow. Provider adapters and stores depend on this
// package; core never depends on a concrete aggregator, processor, or store.
package core
