// Package route defines the route tree consumed by the resolver.
//
// A tree node is either a Resolve function, which produces content or a
// redirect for a matched path, or a *Branch, which maps path segments to
// child nodes. A branch additionally carries:
//   - Index: the content of the branch level itself. A resolver index
//     composes deeper matches through its next argument (layouts); a branch
//     index is a virtual group whose children are reachable without a path
//     segment of their own.
//   - Guard: evaluated before descending; may redirect.
//   - Wildcard: matches any single remaining segment and captures it.
//
// # Building Trees
//
//	routes := &route.Branch[string]{
//	    Index: route.Value("home"),
//	    Children: map[string]route.Node[string]{
//	        "docs": &route.Branch[string]{
//	            Wildcard: route.Resolve[string](showDoc),
//	        },
//	        "old": route.To[string]("/docs"),
//	    },
//	}
//
// Flat route maps with slash-delimited keys are turned into trees by
// Compile, and any tree can be checked with Verify before use.
package route
