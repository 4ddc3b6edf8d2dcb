// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression implements the gzip content coding used by the HTTP
transports.

The HTTP message sender advertises "Accept-Encoding: gzip" when configured
to do so and decodes gzip responses itself; the HTTP server compresses
responses for clients that accept gzip.

# Usage

	c := compression.NewCompressor()
	compressed, err := c.Compress(envelope)

	body, err := compression.DecodeReader(resp.Body, resp.Header.Get("Content-Encoding"))
	defer body.Close()

# References

  - RFC 1952 GZIP file format: https://datatracker.ietf.org/doc/html/rfc1952
  - RFC 9110 Content-Coding: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4
*/
package compression
