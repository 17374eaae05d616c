package http

import (
	"net/http"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/search"
	"github.com/dkeye/devcircle/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Resource serves the uniform CRUD routes over one collection.
type Resource[T any, P interface {
	*T
	domain.Entity
}] struct {
	Coll *storage.Collection[T, P]
	// Index, when set, is kept in step with writes and answers the "search" query.
	Index *search.Index
	// Filter narrows List from query parameters.
	Filter func(c *gin.Context) func(P) bool
	// BeforeCreate runs after binding, before the document is stored.
	BeforeCreate func(c *gin.Context, doc P)
	// BeforeUpdate sees the stored version and the merged one.
	BeforeUpdate func(c *gin.Context, old, doc P)
}

func (r *Resource[T, P]) kind() string { return r.Coll.Name() }

func (r *Resource[T, P]) List(c *gin.Context) {
	var page storage.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errInvalidQuery(err))
		return
	}

	var keeps []func(P) bool
	if cat := c.Query("category"); cat != "" {
		keeps = append(keeps, func(doc P) bool {
			l, ok := any(doc).(domain.Listing)
			return ok && l.ListingCategory() == cat
		})
	}
	if q := c.Query("search"); q != "" && r.Index != nil {
		hits, err := r.Index.Search(c.Request.Context(), r.kind(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		keeps = append(keeps, func(doc P) bool {
			_, ok := hits[doc.Base().ID]
			return ok
		})
	}
	if r.Filter != nil {
		if keep := r.Filter(c); keep != nil {
			keeps = append(keeps, keep)
		}
	}

	docs, err := r.Coll.List(func(doc P) bool {
		return lo.EveryBy(keeps, func(keep func(P) bool) bool { return keep(doc) })
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, storage.Paginate(docs, page))
}

func (r *Resource[T, P]) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := r.Coll.Get(id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (r *Resource[T, P]) Create(c *gin.Context) {
	doc := P(new(T))
	if !bindJSON(c, doc) {
		return
	}
	normalize(doc)
	if r.BeforeCreate != nil {
		r.BeforeCreate(c, doc)
	}
	if err := r.Coll.Insert(doc); err != nil {
		_ = c.Error(err)
		return
	}
	r.reindex(doc)
	c.JSON(http.StatusCreated, doc)
}

// Update merges the body into the stored document.
func (r *Resource[T, P]) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := r.Coll.Get(id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	before := *doc
	if !bindJSON(c, doc) {
		return
	}
	*doc.Base() = *P(&before).Base()
	normalize(doc)
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(c, P(&before), doc)
	}
	if err := r.Coll.Replace(doc); err != nil {
		_ = c.Error(err)
		return
	}
	r.reindex(doc)
	c.JSON(http.StatusOK, doc)
}

func (r *Resource[T, P]) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.Coll.Delete(id); err != nil {
		_ = c.Error(err)
		return
	}
	if r.Index != nil {
		if err := r.Index.Remove(r.kind(), id); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("kind", r.kind()).Str("id", id).Msg("unindex")
		}
	}
	c.Status(http.StatusNoContent)
}

// Mount registers the five routes; writes run behind guard.
func (r *Resource[T, P]) Mount(g *gin.RouterGroup, guard ...gin.HandlerFunc) {
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.POST("", chain(guard, r.Create)...)
	g.PUT("/:id", chain(guard, r.Update)...)
	g.DELETE("/:id", chain(guard, r.Delete)...)
}

func chain(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guard)+1)
	return append(append(out, guard...), h)
}

func (r *Resource[T, P]) reindex(doc P) {
	if r.Index == nil {
		return
	}
	l, ok := any(doc).(domain.Listing)
	if !ok {
		return
	}
	// the store is the source of truth; a stale index only affects search
	if err := r.Index.Put(r.kind(), l); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", r.kind()).Str("id", doc.Base().ID).Msg("index")
	}
}

func normalize(doc any) {
	if n, ok := doc.(domain.Normalizer); ok {
		n.Normalize()
	}
}
