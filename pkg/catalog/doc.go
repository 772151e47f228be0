/*
Package catalog is the static capability contract of the renderer.

It enumerates every component type, its props (types, defaults, required flags) and
whether it accepts children. The interpreter dispatches over this closed set and the
generation pipeline describes it to the language model, so both sides of the system
agree on one schema.
*/
package catalog
