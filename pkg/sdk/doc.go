// Package vpsearch is an in-process Go client for semantic VP role search
// over a Redis or MongoDB Atlas vector index.
//
// The client embeds "<role prefix> of <department>", runs a filtered
// nearest-neighbor query and returns the closest people whose normalized
// role matches the filter role.
//
//	client, _ := vpsearch.New(ctx,
//	    vpsearch.WithRedis("localhost:6379", ""),
//	    vpsearch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_ = client.EnsureIndex(ctx)
//	_, _ = client.Ingest(ctx, vpsearch.Person{
//	    Name: "Alice", Role: "VP of Sales", NormalizedRole: "VP",
//	})
//	res, _ := client.SearchVPRoles(ctx, "Sales")
//	for _, r := range res.Results {
//	    fmt.Println(r.Name, r.Role, r.Score)
//	}
//
// A search that could not reach the index returns a response with
// Status == StatusFailed and a nil error, so callers can tell
// "no matches" apart from "index down".
package vpsearch
