// Package autodeck turns a declarative slide deck description into a
// rendered .pptx file.
//
// The engine lays every slide out on one of six fixed templates, fits
// variable-length text into the template regions, moves pull-quotes out of
// the way of illustrations and acquires those illustrations from an image
// generation API with rate limiting, retries and placeholder fallback.
// Rendering goes through the pptx package.
//
// A typical run:
//
//	deck, err := autodeck.LoadDeck("deck.json")
//	if err != nil {
//		return err
//	}
//	cfg, err := autodeck.Load("autodeck.yaml")
//	if err != nil {
//		return err
//	}
//	report, err := autodeck.Build(ctx, deck, autodeck.BuildOptions{
//		Output: "deck.pptx",
//		Config: &cfg,
//	})
//
// Build never leaves a partial file behind. Slides that cannot be laid out
// and regions assembled with reduced fidelity are listed in the Report.
package autodeck
