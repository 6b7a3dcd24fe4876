// Package importer loads recipes from YAML files into the catalogue.
//
// A file holds a list of recipes:
//
//	recipes:
//	  - title: Tomato Soup
//	    description: A quick weeknight soup.
//	    preparation_duration: 25
//	    servings: 4
//	    skill_level: low
//	    category: Dinner
//	    ingredients:
//	      - {name: Tomatoes, quantity: 6}
//	      - {name: Basil, quantity: a handful}
//	    instructions:
//	      - Roast the tomatoes.
//	      - Blend with basil.
//
// Skill levels are referenced by label and created when missing. Each
// recipe goes through the same validation as the HTTP create endpoint.
// Watch re-imports files as they change; recipes already imported from a
// file by this Importer are not created twice.
package importer
