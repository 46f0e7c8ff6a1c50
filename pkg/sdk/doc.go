// Package dinewise is a Go client for dietary-aware restaurant discovery.
//
// The client runs the discovery pipeline in-process over Redis/Valkey (or
// an in-memory store) and the places provider. Results are ranked by
// dietary, allergy and budget compatibility; a severe allergen or strict
// restriction that cannot be confirmed safe always excludes a restaurant.
//
//	client, _ := dinewise.New(ctx,
//	    dinewise.WithRedis("localhost:6379", ""),
//	    dinewise.WithPlacesKey(os.Getenv("PLACES_API_KEY")),
//	)
//	defer client.Close()
//
//	_ = client.SaveProfile(ctx, &dinewise.Profile{
//	    UserID:    "u1",
//	    Allergens: []dinewise.Allergen{{Kind: dinewise.Peanut, Severity: dinewise.Severe}},
//	    PriceBand: &dinewise.PriceBand{Min: 1, Max: 3},
//	})
//	res, _ := client.Discover(ctx, dinewise.Query{UserID: "u1", Lat: 40.71, Lng: -74.0})
//	for _, it := range res.Items {
//	    fmt.Println(it.Rank, it.Candidate.Name, it.AdjustedScore)
//	}
//
// Live provider calls are gated by a daily cost budget and a per-minute
// request window. When either is exhausted the client serves cached or
// stale data and marks the result degraded; Subscribe delivers the
// matching advisory events.
package dinewise
