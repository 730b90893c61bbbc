// Package twin is an in-memory stand-in for the commerce backend, seeded
// with the fixture dataset the contract scenarios rely on. It implements
// exactly the externally observable contract (token issuance, role checks,
// validation messages, referential-dependency rules, pagination) so the
// harness can be exercised hermetically; it is not a storage engine.
package twin

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

type User struct {
	ID       int64
	Name     string
	Email    string
	Password string
	Admin    bool
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int64
	Name        string
	Description string
	ImgURL      string
	Price       float64
	CategoryIDs []int64
}

type OrderItem struct {
	ProductID int64
	Quantity  int
	Price     float64
}

type Order struct {
	ID            int64
	Moment        string
	Status        string
	ClientID      int64
	PaymentMoment string // empty means not paid yet
	Items         []OrderItem
}

// Store holds all twin state.
type Store struct {
	mu sync.RWMutex

	users      map[int64]User
	categories map[int64]Category
	products   map[int64]Product
	orders     map[int64]Order

	tokens        map[string]int64 // access token -> user id
	nextProductID int64
}

// Seed creates a store with the fixed fixture dataset.
//
// Fixture invariants the scenarios depend on:
//   - products 1, 2 and 3 are referenced by order items (delete -> 400)
//   - product 4 is independent (delete -> 204)
//   - product/order id 100 never exists (-> 404)
//   - order 1 belongs to Maria (client), order 2 to Alex (-> 403 for Maria)
func Seed() *Store {
	s := &Store{
		users:      make(map[int64]User),
		categories: make(map[int64]Category),
		products:   make(map[int64]Product),
		orders:     make(map[int64]Order),
		tokens:     make(map[string]int64),
	}

	for _, u := range []User{
		{ID: 1, Name: "Maria Brown", Email: "maria@gmail.com", Password: "123456"},
		{ID: 2, Name: "Alex Green", Email: "alex@gmail.com", Password: "123456", Admin: true},
	} {
		s.users[u.ID] = u
	}

	for _, c := range []Category{
		{ID: 1, Name: "Livros"},
		{ID: 2, Name: "Eletrônicos"},
		{ID: 3, Name: "Computadores"},
	} {
		s.categories[c.ID] = c
	}

	const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor"
	for _, p := range []Product{
		{ID: 1, Name: "The Lord of the Rings", Description: lorem, ImgURL: imgURL(1), Price: 90.5, CategoryIDs: []int64{1}},
		{ID: 2, Name: "Smart TV", Description: lorem, ImgURL: imgURL(2), Price: 2190.0, CategoryIDs: []int64{2, 3}},
		{ID: 3, Name: "Macbook Pro", Description: lorem, ImgURL: imgURL(3), Price: 1250.0, CategoryIDs: []int64{3}},
		{ID: 4, Name: "PC Gamer", Description: lorem, ImgURL: imgURL(4), Price: 1200.0, CategoryIDs: []int64{3}},
		{ID: 5, Name: "PC Gamer Tera", Description: lorem, ImgURL: imgURL(5), Price: 1950.0, CategoryIDs: []int64{3}},
		{ID: 6, Name: "PC Gamer Hera", Description: lorem, ImgURL: imgURL(6), Price: 2250.0, CategoryIDs: []int64{3}},
		{ID: 7, Name: "PC Gamer Weed", Description: lorem, ImgURL: imgURL(7), Price: 2380.0, CategoryIDs: []int64{3}},
	} {
		s.products[p.ID] = p
	}
	s.nextProductID = 8

	for _, o := range []Order{
		{
			ID: 1, Moment: "2022-07-25T13:00:00Z", Status: "PAID", ClientID: 1,
			PaymentMoment: "2022-07-25T15:00:00Z",
			Items: []OrderItem{
				{ProductID: 1, Quantity: 2, Price: 90.5},
				{ProductID: 3, Quantity: 1, Price: 1250.0},
			},
		},
		{
			ID: 2, Moment: "2022-07-29T15:50:00Z", Status: "DELIVERED", ClientID: 2,
			PaymentMoment: "2022-07-29T16:10:00Z",
			Items: []OrderItem{
				{ProductID: 2, Quantity: 1, Price: 2190.0},
			},
		},
	} {
		s.orders[o.ID] = o
	}

	return s
}

func imgURL(id int64) string {
	return "https://raw.githubusercontent.com/devsuperior/dscatalog-resources/master/backend/img/" + itoa(id) + "-big.jpg"
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// Authenticate checks resource-owner credentials and issues an opaque token.
func (s *Store) Authenticate(username, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == username && u.Password == password {
			tok := uuid.NewString()
			s.tokens[tok] = u.ID
			return tok, true
		}
	}
	return "", false
}

// UserForToken resolves a presented bearer token.
func (s *Store) UserForToken(token string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return User{}, false
	}
	u, ok := s.users[id]
	return u, ok
}

// ProductByID returns a product.
func (s *Store) ProductByID(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// ProductsSorted returns all products ordered by name, the backend's
// declared listing order.
func (s *Store) ProductsSorted() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CategoryByID returns a category.
func (s *Store) CategoryByID(id int64) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// InsertProduct stores a new product and returns it with its assigned id.
func (s *Store) InsertProduct(p Product) Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProductID
	s.nextProductID++
	s.products[p.ID] = p
	return p
}

// DeleteProduct removes a product. The dependent flag reports whether the
// delete was blocked by an order item referencing the product.
func (s *Store) DeleteProduct(id int64) (deleted, dependent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, false
	}
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return false, true
			}
		}
	}
	delete(s.products, id)
	return true, false
}

// OrderByID returns an order.
func (s *Store) OrderByID(id int64) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

// UserByID returns a user.
func (s *Store) UserByID(id int64) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}
