// Package text turns font glyphs into quadfill frame templates and lays
// out shaped strings as objects.
//
// Glyph outlines are read with golang.org/x/image/font/sfnt and stored in
// em units, y up, one shard per glyph. Strings are NFC-normalized and
// shaped with the HarfBuzz port in github.com/go-text/typesetting, so
// kerning and ligatures are honored.
//
//	f, _ := text.ParseFont(goregular.TTF)
//	lib := text.NewLibrary(f, model, quadfill.White)
//	var arena quadfill.Arena
//	objects, _ := lib.Layout(&arena, "Hello", quadfill.V2(-1, 0), 0.25)
//
// Only TrueType (quadratic) outlines can be expressed as frames. Glyphs
// from CFF fonts are rejected with ErrCubicOutline.
package text
