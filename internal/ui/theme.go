package ui

// themeInitScript runs in <head> so the stored colour mode applies before
// first paint.
const themeInitScript = `(function(){
  var root=document.documentElement;
  var dark=window.matchMedia('(prefers-color-scheme: dark)');
  function set(mode){
    if(mode!=='light'&&mode!=='dark'){ mode='auto'; }
    var resolved=mode==='auto'?(dark.matches?'dark':'light'):mode;
    root.setAttribute('data-color-mode',mode);
    root.setAttribute('data-light-theme',resolved);
  }
  var stored='auto';
  try { stored=localStorage.getItem('enrich-ui-theme')||'auto'; } catch (_) {}
  set(stored);
  window.__enrichThemeSet=set;
})();`

// themeBehaviorScript wires the topbar toggle between light and dark.
const themeBehaviorScript = `(function(){
  var root=document.documentElement;
  var dark=window.matchMedia('(prefers-color-scheme: dark)');
  var set=window.__enrichThemeSet;
  var toggle=document.getElementById('theme-toggle');
  if(!set||!toggle){ return; }
  function current(){
    var mode=root.getAttribute('data-color-mode')||'auto';
    return mode==='auto'?(dark.matches?'dark':'light'):mode;
  }
  function sync(){
    var isDark=current()==='dark';
    var sun=document.getElementById('theme-icon-sun');
    var moon=document.getElementById('theme-icon-moon');
    if(sun){ sun.classList.toggle('is-hidden', isDark); }
    if(moon){ moon.classList.toggle('is-hidden', !isDark); }
    toggle.setAttribute('aria-label', isDark?'Switch to light theme':'Switch to dark theme');
  }
  toggle.addEventListener('click', function(){
    var next=current()==='dark'?'light':'dark';
    set(next);
    try { localStorage.setItem('enrich-ui-theme', next); } catch (_) {}
    sync();
  });
  sync();
})();`
