package inventory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// Paginación del libro de movimientos.
const (
	DefaultMovementPageSize = 50
	MaxMovementPageSize     = 500
)

// MovementUseCase libro de movimientos: consulta filtrada y paginada, y agregados.
type MovementUseCase struct {
	repo     repository.MovementRepository
	cache    ReportCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewMovementUseCase construye el caso de uso. cache puede ser nil.
func NewMovementUseCase(repo repository.MovementRepository, cache ReportCache, cacheTTL time.Duration, log *logger.Logger) *MovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &MovementUseCase{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// MovementPage página de movimientos con el total del conjunto filtrado.
type MovementPage struct {
	Items  []*entity.MovementRecord
	Total  int64
	Limit  int
	Offset int
}

// List devuelve la página pedida; la página y el conteo se consultan en paralelo.
func (uc *MovementUseCase) List(ctx context.Context, f repository.MovementFilter, limit, offset int) (*MovementPage, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset, DefaultMovementPageSize, MaxMovementPageSize)

	page := &MovementPage{Limit: limit, Offset: offset}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := uc.repo.List(gctx, f, limit, offset)
		if err != nil {
			return fmt.Errorf("movimientos: listar: %w", err)
		}
		page.Items = items
		return nil
	})
	g.Go(func() error {
		total, err := uc.repo.Count(gctx, f)
		if err != nil {
			return fmt.Errorf("movimientos: contar: %w", err)
		}
		page.Total = total
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []*entity.MovementRecord{}
	}
	return page, nil
}

// Summarize agrega el conjunto filtrado completo (nunca la página). El resultado se guarda en caché
// bajo la versión actual del libro.
func (uc *MovementUseCase) Summarize(ctx context.Context, f repository.MovementFilter, groupBy string) ([]entity.MovementAggregate, error) {
	if !repository.ValidGroupBy(groupBy) {
		return nil, fmt.Errorf("agrupación %q no soportada: %w", groupBy, domain.ErrInvalidInput)
	}
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}

	key := ""
	if uc.cache != nil {
		if version, err := uc.cache.Version(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("caché de reportes no disponible")
		} else {
			key = summaryCacheKey(version, f, groupBy)
			var cached []entity.MovementAggregate
			if ok, err := uc.cache.Get(ctx, key, &cached); err == nil && ok {
				return cached, nil
			}
		}
	}

	out, err := uc.repo.Aggregate(ctx, f, groupBy)
	if err != nil {
		return nil, fmt.Errorf("movimientos: agregar: %w", err)
	}
	if out == nil {
		out = []entity.MovementAggregate{}
	}
	if key != "" {
		if err := uc.cache.Set(ctx, key, out, uc.cacheTTL); err != nil {
			uc.log.Warn().Err(err).Str("clave", key).Msg("no se pudo guardar el resumen en caché")
		}
	}
	return out, nil
}

// normalizeFilter valida tipos y rango y pliega la búsqueda (minúsculas, sin tildes).
func normalizeFilter(f repository.MovementFilter) (repository.MovementFilter, error) {
	for _, t := range f.ReferenceTypes {
		if !entity.ValidMovementType(t) {
			return f, fmt.Errorf("tipo de movimiento %q inválido: %w", t, domain.ErrInvalidInput)
		}
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, fmt.Errorf("rango de fechas vacío: %w", domain.ErrInvalidInput)
	}
	f.Search = inventory.FoldText(strings.TrimSpace(f.Search))
	return f, nil
}

func summaryCacheKey(version int64, f repository.MovementFilter, groupBy string) string {
	ids := append([]string(nil), f.ProductIDs...)
	sort.Strings(ids)
	types := append([]string(nil), f.ReferenceTypes...)
	sort.Strings(types)
	f.ProductIDs, f.ReferenceTypes = ids, types
	raw, _ := json.Marshal(struct {
		F repository.MovementFilter
		G string
	}{f, groupBy})
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("movements:summary:v%d:%s", version, hex.EncodeToString(sum[:12]))
}
