// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package display mints the rotating vote links shown next to a project.

A Session is bound to one project and one display device. Mint checks the
device against the registry and encodes a token for the current bucket;
Run repeats that at every bucket boundary until its context is cancelled.
*/
package display
