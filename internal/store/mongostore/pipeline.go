package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
)

var sortKeys = map[catalog.SortField]string{
	catalog.SortCreatedAt: "created_at",
	catalog.SortUpdatedAt: "updated_at",
	catalog.SortName:      "name",
	catalog.SortAppID:     "app_id",
	catalog.SortStatus:    "_status",
}

// matchFilter translates the query's constraints. A restricted ID set always
// yields an $in operand, empty or not.
func matchFilter(q catalog.Query) bson.M {
	match := bson.M{}
	if q.AppID != "" {
		match["app_id"] = q.AppID
	}
	if q.IDs.Restricted() {
		match["_id"] = bson.M{"$in": q.IDs.IDs()}
	}
	if q.Statuses != nil {
		match["_status"] = bson.M{"$in": statusStrings(q.Statuses)}
	}
	return match
}

// pagePipeline is $match followed by a $facet holding the total count and
// the sorted page of IDs. Ties on the sort field break on _id.
func pagePipeline(q catalog.Query) mongo.Pipeline {
	key, ok := sortKeys[q.Sort.Field]
	if !ok {
		key = "created_at"
	}
	dir := -1
	if q.Sort.Asc {
		dir = 1
	}

	results := bson.A{
		bson.M{"$sort": bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}},
	}
	if q.Skip > 0 {
		results = append(results, bson.M{"$skip": int64(q.Skip)})
	}
	results = append(results,
		bson.M{"$limit": int64(max(q.Limit, 1))},
		bson.M{"$project": bson.M{"_id": 1}},
	)

	return mongo.Pipeline{
		{{Key: "$match", Value: matchFilter(q)}},
		{{Key: "$facet", Value: bson.M{
			"metadata": bson.A{bson.M{"$count": "total"}},
			"results":  results,
		}}},
	}
}
