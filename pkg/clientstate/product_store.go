package clientstate

import (
	"context"
	"net/url"

	"github.com/Skotchmaster/shopfront/pkg/apiclient"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const fetchProductsFailed = "Failed to fetch products"

type ProductState struct {
	Products []Product
	Loading  bool
	Err      string
}

type ProductStore struct {
	*Store[ProductState]
	api    *apiclient.Client
	notify Notifier
}

func NewProductStore(api *apiclient.Client, n Notifier) *ProductStore {
	if n == nil {
		n = LogNotifier{}
	}
	return &ProductStore{
		Store:  NewStore(ProductState{}),
		api:    api,
		notify: n,
	}
}

func (s *ProductStore) SetProducts(products []Product) {
	s.Update(func(st ProductState) ProductState {
		st.Products = products
		return st
	})
}

func (s *ProductStore) start() {
	s.Update(func(st ProductState) ProductState {
		st.Loading = true
		return st
	})
}

func (s *ProductStore) fail(err error, errState, fallback string) error {
	s.Update(func(st ProductState) ProductState {
		st.Loading = false
		if errState != "" {
			st.Err = errState
		}
		return st
	})
	s.notify.Error(message(err, fallback))
	return err
}

func (s *ProductStore) replace(products []Product) {
	s.Update(func(st ProductState) ProductState {
		st.Products = products
		st.Loading = false
		st.Err = ""
		return st
	})
}

func (s *ProductStore) CreateProduct(ctx context.Context, in NewProduct) (*Product, error) {
	s.start()

	var p Product
	if err := s.api.Post(ctx, "/products", in, &p); err != nil {
		return nil, s.fail(err, "", defaultErrorMessage)
	}
	s.Update(func(st ProductState) ProductState {
		next := make([]Product, 0, len(st.Products)+1)
		next = append(next, st.Products...)
		st.Products = append(next, p)
		st.Loading = false
		return st
	})
	return &p, nil
}

func (s *ProductStore) FetchAllProducts(ctx context.Context) error {
	s.start()

	var out productList
	if err := s.api.Get(ctx, "/products", &out); err != nil {
		return s.fail(err, fetchProductsFailed, fetchProductsFailed)
	}
	s.replace(out.Products)
	return nil
}

func (s *ProductStore) DeleteProduct(ctx context.Context, id string) error {
	s.start()

	if err := s.api.Delete(ctx, "/products/"+url.PathEscape(id), nil, nil); err != nil {
		return s.fail(err, "", defaultErrorMessage)
	}
	s.Update(func(st ProductState) ProductState {
		next := make([]Product, 0, len(st.Products))
		for _, p := range st.Products {
			if p.ID != id {
				next = append(next, p)
			}
		}
		st.Products = next
		st.Loading = false
		return st
	})
	return nil
}

func (s *ProductStore) ToggleFeaturedProduct(ctx context.Context, id string) error {
	s.start()

	var updated Product
	if err := s.api.Patch(ctx, "/products/"+url.PathEscape(id), nil, &updated); err != nil {
		return s.fail(err, "", defaultErrorMessage)
	}
	s.Update(func(st ProductState) ProductState {
		next := make([]Product, len(st.Products))
		for i, p := range st.Products {
			if p.ID == id {
				p.IsFeatured = updated.IsFeatured
			}
			next[i] = p
		}
		st.Products = next
		st.Loading = false
		return st
	})
	return nil
}

func (s *ProductStore) FetchProductsByCategory(ctx context.Context, category string) error {
	s.start()

	var out productList
	if err := s.api.Get(ctx, "/products/category/"+url.PathEscape(category), &out); err != nil {
		return s.fail(err, fetchProductsFailed, fetchProductsFailed)
	}
	s.replace(out.Products)
	return nil
}

// FetchFeaturedProducts does not raise the loading flag and logs instead
// of notifying; it runs on the landing page.
func (s *ProductStore) FetchFeaturedProducts(ctx context.Context) error {
	var products []Product
	if err := s.api.Get(ctx, "/products/featured", &products); err != nil {
		logging.FromContext(ctx).Error("fetch_featured_failed", "error", err)
		s.Update(func(st ProductState) ProductState {
			st.Err = "Failed to fetch featured products"
			st.Loading = false
			return st
		})
		return err
	}
	s.replace(products)
	return nil
}
