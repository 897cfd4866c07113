// Package iri deterministically constructs namespace, version, and class
// IRIs from structured parts.
//
// The format is load-bearing: stored data and the knowledge-graph indexer
// key on these strings, so minting must be reproducible bit-exact.
package iri

import (
	"fmt"
	"strings"

	dErrors "ontoreg/pkg/domain-errors"
)

// Base is the root of every minted IRI.
const Base = "https://w3id.org/defense/odras"

// NamespacePath returns the IRI path segment for a namespace: "{type}/{name}".
func NamespacePath(nsType, name string) (string, error) {
	if err := validateSegment("type", nsType); err != nil {
		return "", err
	}
	if err := validateSegment("name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", strings.ToLower(nsType), name), nil
}

// VersionIRI mints the IRI for one version of a namespace:
// "{Base}/{type}/{name}/{version}".
func VersionIRI(nsType, name, version string) (string, error) {
	path, err := NamespacePath(nsType, name)
	if err != nil {
		return "", err
	}
	if err := validateSegment("version", version); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", Base, path, version), nil
}

// ClassIRI mints the IRI for a class defined in a version:
// "{versionIRI}#{local_name}".
func ClassIRI(nsType, name, version, localName string) (string, error) {
	versionIRI, err := VersionIRI(nsType, name, version)
	if err != nil {
		return "", err
	}
	if err := validateSegment("local name", localName); err != nil {
		return "", err
	}
	return versionIRI + "#" + localName, nil
}

// validateSegment rejects parts that would change the shape of the IRI.
func validateSegment(kind, value string) error {
	if value == "" {
		return dErrors.Newf(dErrors.CodeInvalidInput, "iri %s segment is required", kind)
	}
	if strings.ContainsAny(value, "/#?") {
		return dErrors.Newf(dErrors.CodeInvalidInput, "iri %s segment %q must not contain '/', '#', or '?'", kind, value)
	}
	if strings.TrimSpace(value) != value {
		return dErrors.Newf(dErrors.CodeInvalidInput, "iri %s segment %q must not have surrounding whitespace", kind, value)
	}
	return nil
}
