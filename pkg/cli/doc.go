// Package cli implements spicectl, the administrative command line for the
// recipe catalogue.
//
// Every command opens the database described by the SPICE_DB_* environment
// variables (see pkg/storage); --db-driver and --db-url override them.
//
//	spicectl migrate                      # apply schema migrations
//	spicectl seed                         # create the default skill levels
//	spicectl import --dir ./recipes       # import YAML recipe files
//	spicectl import --dir ./recipes --watch
//	spicectl export --out snapshot.json   # write a catalogue snapshot
//	spicectl export                       # upload to SPICE_S3_BUCKET
//	spicectl purge-tokens                 # drop expired revocations
//
// Recipe files look like:
//
//	recipes:
//	  - title: Tomato Soup
//	    description: A quick weeknight soup.
//	    preparation_duration: 25
//	    category: Dinner
//	    ingredients:
//	      - {name: Tomatoes, quantity: "6"}
//	    instructions:
//	      - Roast the tomatoes.
package cli
