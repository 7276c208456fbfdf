package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/usecases"
)

// sightingOf unwraps the value or pointer a resolver receives.
func sightingOf(src interface{}) (domain.Sighting, bool) {
	switch s := src.(type) {
	case domain.Sighting:
		return s, true
	case *domain.Sighting:
		if s != nil {
			return *s, true
		}
	}
	return domain.Sighting{}, false
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	sightingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Sighting",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"species":     &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"image":       &graphql.Field{Type: graphql.String},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"latitude": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := sightingOf(p.Source)
					return s.Location.Lat, nil
				},
			},
			"longitude": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := sightingOf(p.Source)
					return s.Location.Lon, nil
				},
			},
			"created_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, _ := sightingOf(p.Source)
					return s.CreatedAt.UTC().Format(time.RFC3339), nil
				},
			},
		},
	})

	speciesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SpeciesItem",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"image":       &graphql.Field{Type: graphql.String},
			"species":     &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: graphql.String},
			"latest_time": &graphql.Field{Type: graphql.String},
			"frequency":   &graphql.Field{Type: graphql.Int},
		},
	})

	searchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"species":       &graphql.Field{Type: graphql.String},
			"type":          &graphql.Field{Type: graphql.String},
			"image":         &graphql.Field{Type: graphql.String},
			"description":   &graphql.Field{Type: graphql.String},
			"location_name": &graphql.Field{Type: graphql.String},
			"created_at":    &graphql.Field{Type: graphql.String},
			"score":         &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sightings": &graphql.Field{
				Type:        graphql.NewList(sightingType),
				Description: "Most recent sightings",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultSightingLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sightings, err := deps.Sightings.List(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					return publicSightings(sightings), nil
				},
			},
			"sighting": &graphql.Field{
				Type:        sightingType,
				Description: "Get a sighting by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Sightings.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return s.Public(), nil
				},
			},
			"sightingsNearby": &graphql.Field{
				Type:        graphql.NewList(sightingType),
				Description: "Sightings within a radius of a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 10.0},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := domain.Coordinate{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					sightings, err := deps.Sightings.Nearby(p.Context, origin, p.Args["radius_km"].(float64), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					return publicSightings(sightings), nil
				},
			},
			"speciesByType": &graphql.Field{
				Type:        graphql.NewList(speciesType),
				Description: "Species of one type sighted around a point",
				Args: graphql.FieldConfigArgument{
					"type":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: usecases.DefaultSpeciesRadiusKm},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, err := domain.ParseCategory(p.Args["type"].(string))
					if err != nil {
						return nil, err
					}
					origin := domain.Coordinate{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Species.ByType(p.Context, category, origin, p.Args["radius_km"].(float64))
				},
			},
			"search": &graphql.Field{
				Type:        graphql.NewList(searchResultType),
				Description: "Semantic search over sightings",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultSearchLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Search(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the read-only GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
